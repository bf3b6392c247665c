// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/skill"
)

func newRunCommand() *cobra.Command {
	var varFlags []string

	cmd := &cobra.Command{
		Use:   "run <skill-file>",
		Short: "Submit a skill file and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseVarFlags(varFlags)
			if err != nil {
				return err
			}
			return runSkill(cmd.Context(), args[0], overrides)
		},
	}
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "override a skill variable as name=value (repeatable)")
	return cmd
}

func parseVarFlags(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --var %q: want name=value", f)
		}
		out[name] = value
	}
	return out, nil
}

// runSkill parses, validates, and drives one skill to completion. Ctrl-C
// cancels the root context passed into the scheduler, which forwards it
// to every in-flight SSH/subprocess call at its next suspension point.
func runSkill(parent context.Context, path string, overrides map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	sk, err := skill.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if report := skill.Validate(sk); !report.Valid {
		for _, e := range report.Errors {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error:")+" "+e)
		}
		return fmt.Errorf("%s failed validation", path)
	}

	app, err := buildApp()
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	const subscriberID = "cli-run"
	events := app.Events.Subscribe(subscriberID)

	if addr := app.Config.Events.WSListenAddr; addr != "" {
		bridge := eventbus.NewWSBridge(app.Events, app.Logger)
		mux := http.NewServeMux()
		mux.Handle("/events", bridge)
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, warningStyle.Render("warning:")+" event bridge: "+err.Error())
			}
		}()
		defer srv.Close()
		fmt.Println(subtitleStyle.Render("events: ") + "ws://" + addr + "/events")
	}

	fmt.Println(titleStyle.Render(sk.Name) + subtitleStyle.Render(fmt.Sprintf(" v%s — %d steps", sk.Version, len(sk.Steps))))

	exec, err := app.Sched.Submit(ctx, sk, overrides)
	if err != nil {
		app.Events.Unsubscribe(subscriberID)
		return fmt.Errorf("submit %s: %w", path, err)
	}
	fmt.Println(subtitleStyle.Render("execution ") + exec.ID)

	if app.Tail != nil {
		if err := app.Tail.Start(ctx); err != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render("warning:")+" tail server did not start: "+err.Error())
		} else {
			defer app.Tail.Stop()
			if info, err := app.Tail.IssueAttachToken(exec.ID); err == nil {
				fmt.Printf("%s ssh -p %d %s@%s (token %s)\n",
					subtitleStyle.Render("tail:"), info.Port, exec.ID, info.Host, info.Token)
			}
		}
	}

	if err := writePidFile(app.DataDir, exec.ID); err != nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("warning:")+" could not write pidfile: "+err.Error())
	}
	defer removePidFile(app.DataDir, exec.ID)

	go func() {
		<-ctx.Done()
		app.Sched.Cancel(exec.ID)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			printEvent(ev)
		}
	}()

	exec.Wait()
	app.Events.Unsubscribe(subscriberID)
	<-done

	fmt.Printf("\n%s execution %s: %s\n", statusGlyph(string(exec.Status)), exec.ID, exec.Status)
	fmt.Printf("%s %s\n", subtitleStyle.Render("log:"), fmt.Sprintf("doppio-engine logs %s", exec.ID))
	if exec.Status != "succeeded" {
		return fmt.Errorf("execution %s finished with status %s", exec.ID, exec.Status)
	}
	return nil
}

func statusGlyph(status string) string {
	switch status {
	case "succeeded":
		return successStyle.Render("✓")
	case "cancelled":
		return warningStyle.Render("!")
	default:
		return errorStyle.Render("✗")
	}
}

func printEvent(ev eventbus.Event) {
	switch ev.Topic {
	case eventbus.TopicStepStarted:
		p := ev.Payload.(eventbus.StepStartedPayload)
		fmt.Println(cmdStyle.Render("▶ "+p.Step) + subtitleStyle.Render(" started"))
	case eventbus.TopicStepProgress:
		p := ev.Payload.(eventbus.StepProgressPayload)
		if p.Progress != "" {
			fmt.Println(subtitleStyle.Render("  "+p.Step+": ") + p.Progress)
		}
	case eventbus.TopicStepFinished:
		p := ev.Payload.(eventbus.StepFinishedPayload)
		fmt.Println(statusGlyph(p.Status) + " " + p.Step + subtitleStyle.Render(" "+p.Status))
	}
}
