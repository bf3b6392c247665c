// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <execution-id>",
		Short: "Cancel a running execution by signaling its foreground `run` process",
		Long: `Cancel a running execution.

Executions are not durable across process restarts:
this sends SIGINT to the OS process that is foreground-running the
execution's "doppio-engine run" invocation, exactly as if the operator
pressed Ctrl-C there. The scheduler observes it at the step's next
suspension point and marks the execution cancelled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(args[0])
		},
	}
}

func runCancel(execID string) error {
	app, err := buildApp()
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	pid, err := readPid(app.DataDir, execID)
	if err != nil {
		return err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(os.Interrupt); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}

	fmt.Println(successStyle.Render("✓") + fmt.Sprintf(" sent cancel signal for execution %s (pid %d)", execID, pid))
	return nil
}
