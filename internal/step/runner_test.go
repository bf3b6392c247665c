// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"doppio-engine/internal/condition"
	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/skill"
)

// fakeOp is a minimal skill.Operation used to drive Runner without any
// real host/transport dependency.
type fakeOp struct{ kind string }

func (f fakeOp) Kind() string { return f.kind }

func newRunnerWithHandler(kind string, h dispatch.Handler) *Runner {
	reg := dispatch.NewRegistry()
	reg.Register(kind, h)
	return NewRunner(reg)
}

func TestRunner_Succeeds(t *testing.T) {
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		return dispatch.Result{ExitCode: 0, Output: "ok"}, nil
	})

	st := skill.Step{ID: "s", Operation: fakeOp{"fake"}, Retry: skill.DefaultRetryPolicy}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", out.Status)
	}
	if out.Output != "ok" {
		t.Errorf("output = %q, want ok", out.Output)
	}
}

// captureLog is a dispatch.LogAppender recording every appended entry.
type captureLog struct {
	entries []logstore.Entry
}

func (c *captureLog) Append(executionID string, entry logstore.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func TestRunner_SuccessLogsOutputAsStdout(t *testing.T) {
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		return dispatch.Result{ExitCode: 0, Output: "line one\nline two\n"}, nil
	})

	logs := &captureLog{}
	st := skill.Step{ID: "s", Operation: fakeOp{"fake"}, Retry: skill.DefaultRetryPolicy}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked, StepID: "s", Logs: logs}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", out.Status)
	}
	if len(logs.entries) != 2 {
		t.Fatalf("logged %d entries, want 2 stdout lines: %+v", len(logs.entries), logs.entries)
	}
	for i, want := range []string{"line one", "line two"} {
		e := logs.entries[i]
		if e.Stream != logstore.StreamStdout {
			t.Errorf("entry %d stream = %s, want stdout", i, e.Stream)
		}
		if e.StepID != "s" {
			t.Errorf("entry %d step_id = %q, want s", i, e.StepID)
		}
		if e.Message != want {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, want)
		}
	}
}

func TestRunner_FailedAttemptLogsStderr(t *testing.T) {
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		return dispatch.Result{ExitCode: 1}, engineerr.Command("fake", context.DeadlineExceeded)
	})

	logs := &captureLog{}
	st := skill.Step{ID: "s", Operation: fakeOp{"fake"}, Retry: skill.DefaultRetryPolicy}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked, StepID: "s", Logs: logs}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if len(logs.entries) != 1 || logs.entries[0].Stream != logstore.StreamStderr {
		t.Fatalf("logged entries = %+v, want one stderr entry", logs.entries)
	}
}

func TestRunner_SkippedWhenConditionFalse(t *testing.T) {
	called := false
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		called = true
		return dispatch.Result{}, nil
	})

	st := skill.Step{
		ID:        "s",
		Operation: fakeOp{"fake"},
		Retry:     skill.DefaultRetryPolicy,
		When:      condition.Never{},
	}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusSkipped {
		t.Fatalf("status = %s, want skipped", out.Status)
	}
	if called {
		t.Error("handler was dispatched despite a false `when` condition")
	}
}

func TestRunner_RetriesUntilSuccess(t *testing.T) {
	var attempts int32
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return dispatch.Result{ExitCode: 1}, engineerr.Command("fake", context.DeadlineExceeded)
		}
		return dispatch.Result{ExitCode: 0}, nil
	})

	st := skill.Step{
		ID:        "s",
		Operation: fakeOp{"fake"},
		Retry:     skill.RetryPolicy{MaxAttempts: 5, BackoffSeconds: 0.001},
	}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", out.Status)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRunner_FailsAfterExhaustingRetries(t *testing.T) {
	var attempts int32
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		atomic.AddInt32(&attempts, 1)
		return dispatch.Result{ExitCode: 1}, engineerr.Command("fake", context.DeadlineExceeded)
	})

	st := skill.Step{
		ID:        "s",
		Operation: fakeOp{"fake"},
		Retry:     skill.RetryPolicy{MaxAttempts: 3, BackoffSeconds: 0},
	}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	out := r.Run(context.Background(), st, oc)
	if out.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (MaxAttempts, no further retry)", attempts)
	}
}

func TestRunner_CancelledByParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		t.Fatal("handler dispatched on an already-cancelled context")
		return dispatch.Result{}, nil
	})

	st := skill.Step{ID: "s", Operation: fakeOp{"fake"}, Retry: skill.DefaultRetryPolicy}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	out := r.Run(ctx, st, oc)
	if out.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", out.Status)
	}
}

func TestRunner_BackoffIsInterruptibleByCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempts int32
	r := newRunnerWithHandler("fake", func(ctx context.Context, oc *dispatch.OperationContext, op skill.Operation) (dispatch.Result, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			cancel()
		}
		return dispatch.Result{ExitCode: 1}, engineerr.Command("fake", context.DeadlineExceeded)
	})

	st := skill.Step{
		ID:        "s",
		Operation: fakeOp{"fake"},
		Retry:     skill.RetryPolicy{MaxAttempts: 5, BackoffSeconds: 5},
	}
	oc := &dispatch.OperationContext{Mode: dispatch.Checked}

	done := make(chan Outcome, 1)
	go func() { done <- r.Run(ctx, st, oc) }()

	select {
	case out := <-done:
		if out.Status != StatusCancelled {
			t.Fatalf("status = %s, want cancelled", out.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly once its context was cancelled mid-backoff")
	}
}
