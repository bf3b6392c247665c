// SPDX-License-Identifier: MPL-2.0

package subproc

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	res := r.Run(context.Background(), Spec{Argv: []string{"true"}})
	if res.Err != nil || res.ExitCode != 0 {
		t.Fatalf("expected success, got %+v", res)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	res := r.Run(context.Background(), Spec{Argv: []string{"sh", "-c", "exit 7"}})
	if res.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %+v", res)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	res := r.Run(context.Background(), Spec{Argv: []string{"doppio-nonexistent-binary-xyz"}})
	if res.Err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestStart_StreamsLines(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	lines, results := r.Start(context.Background(), Spec{
		Argv: []string{"sh", "-c", "echo out1; echo err1 1>&2; echo out2"},
	})

	var got []Line
	for l := range lines {
		got = append(got, l)
	}
	res := <-results
	if res.Err != nil || res.ExitCode != 0 {
		t.Fatalf("expected success, got %+v", res)
	}

	var stdoutLines []string
	for _, l := range got {
		if l.Stream == Stdout {
			stdoutLines = append(stdoutLines, l.Text)
		}
	}
	if strings.Join(stdoutLines, ",") != "out1,out2" {
		t.Errorf("expected ordered stdout lines, got %v", stdoutLines)
	}
}

func TestRun_TimeoutYieldsCancelledExitCode(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	res := r.Run(context.Background(), Spec{
		Argv:    []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
	})
	if res.ExitCode != CanceledExitCode {
		t.Fatalf("expected CanceledExitCode, got %+v", res)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner()

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	res := r.Run(ctx, Spec{Argv: []string{"sleep", "5"}})
	if res.ExitCode != CanceledExitCode {
		t.Fatalf("expected CanceledExitCode, got %+v", res)
	}
}
