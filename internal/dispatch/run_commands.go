// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/skill"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/terminal"
	"doppio-engine/pkg/platform"
)

// sessionKey derives the stable TerminalManager id a given host/session-name
// pair's tmux session is registered under, shared by RunCommands'
// "new"/"existing" modes. The owning execution id leads the key so a
// session is reused across steps of one execution but never leaks into
// another, and so the tail server can attach to an execution's terminal
// by execution-id prefix.
func sessionKey(execID, hostID, sessionName string) string {
	return execID + "/" + hostID + "#" + sessionName
}

func (r *Registry) handleRunCommands(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	rc := op.(skill.RunCommands)

	hostID := oc.effectiveHostID(rc.HostID)
	commands := make([]string, len(rc.Commands))
	for i, c := range rc.Commands {
		expanded, err := oc.interp(c)
		if err != nil {
			return Result{}, err
		}
		commands[i] = expanded
	}
	workDir, err := oc.interp(rc.WorkDir)
	if err != nil {
		return Result{}, err
	}
	env := make(map[string]string, len(rc.Env))
	for k, v := range rc.Env {
		expanded, err := oc.interp(v)
		if err != nil {
			return Result{}, err
		}
		env[k] = expanded
	}

	switch rc.TmuxMode {
	case skill.TmuxModeNone, "":
		return r.runCommandsDirect(ctx, oc, hostID, commands, workDir, env)
	case skill.TmuxModeNew:
		if hostID == hostresolve.LocalHostID || hostID == "" {
			return Result{}, engineerr.InvalidInput("dispatch.RunCommands", fmt.Errorf("tmux mode %q is not allowed for a local target", rc.TmuxMode))
		}
		return r.runCommandsTmuxNew(ctx, oc, hostID, rc.SessionName, commands)
	case skill.TmuxModeExisting:
		return r.runCommandsTmuxExisting(ctx, oc, hostID, rc.SessionName, commands)
	default:
		return Result{}, engineerr.InvalidInput("dispatch.RunCommands", fmt.Errorf("unknown tmux mode %q", rc.TmuxMode))
	}
}

// runCommandsDirect runs commands as a single shell invocation: env
// exported via `export K=V;` and workdir prepended via `cd <dir> &&`, per
// with `cd <dir> &&`. The owning execution/step/host ids are exported alongside the
// step's own env so commands can report back to the engine's log by id.
func (r *Registry) runCommandsDirect(ctx context.Context, oc *OperationContext, hostID string, commands []string, workDir string, env map[string]string) (Result, error) {
	var script strings.Builder
	fmt.Fprintf(&script, "export %s=%s; export %s=%s; export %s=%s; ",
		platform.EnvVarExecID, shQuote(oc.ExecutionID),
		platform.EnvVarStepID, shQuote(oc.StepID),
		platform.EnvVarHostID, shQuote(hostID))
	for k, v := range env {
		fmt.Fprintf(&script, "export %s=%s; ", k, shQuote(v))
	}
	if workDir != "" {
		fmt.Fprintf(&script, "cd %s && ", shQuote(workDir))
	}
	script.WriteString(strings.Join(commands, " && "))

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script.String(), "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.RunCommands",
			fmt.Errorf("commands on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

// runCommandsTmuxNew creates (or reattaches to) a tmux session on hostID
// under an interactive PTY our process holds open, registers it in
// Terminals under sessionKey, and runs commands through the marker
// protocol.
func (r *Registry) runCommandsTmuxNew(ctx context.Context, oc *OperationContext, hostID, sessionName string, commands []string) (Result, error) {
	key := sessionKey(oc.ExecutionID, hostID, sessionName)
	if _, ok := oc.Terminals.Get(key); !ok {
		ep, err := oc.Hosts.Resolve(ctx, hostID)
		if err != nil {
			return Result{}, err
		}
		remoteCmd := fmt.Sprintf("tmux new-session -A -s %s", shQuote(sessionName))
		argv := append([]string{"ssh"}, sshtarget.InteractiveShellCommand(ep, remoteCmd)...)
		sess, err := terminal.Start(key, sessionName, terminal.Spec{Argv: argv}, 0, termDataHook(oc.Events, key))
		if err != nil {
			return Result{}, err
		}
		oc.Terminals.Register(sess)
		watchTermExit(oc.Events, sess)
	}
	return r.runStepInSession(ctx, oc, key, commands)
}

// runCommandsTmuxExisting sends commands to a session previously created by
// runCommandsTmuxNew (or a prior TmuxNew step) in the same execution.
func (r *Registry) runCommandsTmuxExisting(ctx context.Context, oc *OperationContext, hostID, sessionName string, commands []string) (Result, error) {
	key := sessionKey(oc.ExecutionID, hostID, sessionName)
	if _, ok := oc.Terminals.Get(key); !ok {
		return Result{}, engineerr.NotFound("dispatch.RunCommands", fmt.Errorf("no live session %q; a %q-mode step must create it first", key, skill.TmuxModeNew))
	}
	return r.runStepInSession(ctx, oc, key, commands)
}

// termDataHook returns the session onData callback publishing term:data
// events for id, or nil when no event bus is wired.
func termDataHook(events EventPublisher, id string) func([]byte) {
	if events == nil {
		return nil
	}
	return func(data []byte) {
		events.Publish(eventbus.Event{
			Topic:   eventbus.TopicTermData,
			Payload: eventbus.TermDataPayload{ID: id, Data: string(data)},
		})
	}
}

// watchTermExit publishes term:exit once sess's child exits.
func watchTermExit(events EventPublisher, sess *terminal.Session) {
	if events == nil {
		return
	}
	go func() {
		<-sess.Exited()
		events.Publish(eventbus.Event{
			Topic:   eventbus.TopicTermExit,
			Payload: eventbus.TermExitPayload{ID: sess.ID},
		})
	}()
}

func (r *Registry) runStepInSession(ctx context.Context, oc *OperationContext, key string, commands []string) (Result, error) {
	sess, ok := oc.Terminals.Get(key)
	if !ok {
		return Result{}, engineerr.Internal("dispatch.RunCommands", fmt.Errorf("session %q vanished from the registry", key))
	}
	res, err := sess.RunStep(ctx, oc.StepID, commands, 0, 0, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if res.ExitCode != 0 {
		return Result{ExitCode: res.ExitCode, Output: res.Output}, engineerr.Command("dispatch.RunCommands",
			fmt.Errorf("commands in session %q exited %d", key, res.ExitCode))
	}
	return Result{ExitCode: res.ExitCode, Output: res.Output}, nil
}
