// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"doppio-engine/internal/logstore"
)

func newLogsCommand() *cobra.Command {
	var follow bool
	var cursor int64

	cmd := &cobra.Command{
		Use:   "logs <execution-id>",
		Short: "Print an execution's JSONL log, paginated by byte cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(args[0], cursor, follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling for new log entries (like tail -f)")
	cmd.Flags().Int64Var(&cursor, "cursor", 0, "byte offset to start reading from")
	return cmd
}

func runLogs(execID string, cursor int64, follow bool) error {
	app, err := buildApp()
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	for {
		chunk, err := app.Logs.ReadChunk(execID, cursor, logstore.DefaultChunkSize)
		if err != nil {
			return fmt.Errorf("read log for %s: %w", execID, err)
		}
		for _, e := range chunk.Entries {
			printLogEntry(e)
		}
		cursor = chunk.NextCursor

		if !follow {
			if !chunk.EOF {
				// More data was available than one chunk covers; keep
				// draining without sleeping between chunks.
				continue
			}
			return nil
		}
		if chunk.EOF {
			time.Sleep(500 * time.Millisecond)
		}
	}
}

func printLogEntry(e logstore.Entry) {
	ts := e.Timestamp.Format(time.RFC3339)
	prefix := subtitleStyle.Render(ts)
	if e.StepID != "" {
		prefix += " " + cmdStyle.Render(e.StepID)
	}
	style := subtitleStyle
	switch e.Stream {
	case logstore.StreamStderr:
		style = errorStyle
	case logstore.StreamSystem:
		style = warningStyle
	}
	fmt.Printf("%s [%s] %s\n", prefix, style.Render(string(e.Stream)), e.Message)
}
