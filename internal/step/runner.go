// SPDX-License-Identifier: MPL-2.0

// Package step implements the StepRunner: the per-step execution
// contract one worker of the ExecutionScheduler drives to completion
// (precondition check, retry-with-backoff, timeout enforcement,
// dispatch), generalized from a single runtime invocation to the full
// Operation tagged union.
package step

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/skill"
)

// Status is a step's terminal outcome from one Runner.Run call. It does
// not include the scheduler-only "pending"/"ready"/"running" states,
// which the coordinator tracks itself.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	// StatusCancelled marks a step interrupted by execution-level
	// cancellation (distinct from a step's own failure or timeout).
	StatusCancelled Status = "cancelled"
)

// Outcome is the result of running one Step to completion.
type Outcome struct {
	Status   Status
	ExitCode int
	Output   string
	Vars     map[string]string
	Err      error
}

// Runner drives one Step: evaluate `when`, then dispatch
// with up to retry.max_attempts tries, each under its own timeout_secs
// deadline, sleeping retry.backoff_seconds between failed attempts.
type Runner struct {
	Dispatch *dispatch.Registry
}

// NewRunner returns a Runner dispatching operations through reg.
func NewRunner(reg *dispatch.Registry) *Runner {
	return &Runner{Dispatch: reg}
}

// Run executes st to completion. ctx is the execution-wide context: its
// cancellation (distinct from a per-attempt timeout derived from it)
// yields StatusCancelled rather than StatusFailed.
func (r *Runner) Run(ctx context.Context, st skill.Step, oc *dispatch.OperationContext) Outcome {
	if st.When != nil {
		ok, err := st.When.Evaluate(ctx, oc.Env)
		if err != nil {
			return Outcome{Status: StatusFailed, Err: engineerr.Command("step.Runner", err)}
		}
		if !ok {
			return Outcome{Status: StatusSkipped}
		}
	}

	attempts := st.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(st.Retry.BackoffSeconds * float64(time.Second))

	var last Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Status: StatusCancelled, Err: engineerr.Command("step.Runner", ctx.Err())}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if st.TimeoutSecs > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, time.Duration(st.TimeoutSecs*float64(time.Second)))
		}
		res, err := r.Dispatch.Dispatch(attemptCtx, oc, st.Operation)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			logAttemptOutput(oc, res.Output)
			return Outcome{Status: StatusSucceeded, ExitCode: res.ExitCode, Output: res.Output, Vars: res.Vars}
		}

		if ctx.Err() != nil {
			// The execution (not just this attempt's own deadline) was
			// cancelled; surface distinctly so the scheduler does not
			// apply the step's on_failure policy to it.
			return Outcome{Status: StatusCancelled, ExitCode: res.ExitCode, Err: err}
		}

		logAttemptFailure(oc, attempt, attempts, err)
		last = Outcome{Status: StatusFailed, ExitCode: res.ExitCode, Output: res.Output, Err: err}

		if attempt == attempts {
			break
		}
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return Outcome{Status: StatusCancelled, Err: engineerr.Command("step.Runner", ctx.Err())}
			case <-time.After(backoff):
			}
		}
	}
	return last
}

// logAttemptOutput appends one stdout log entry per line of a successful
// attempt's captured output, tagged with the step id, and republishes
// each on the event bus. Blank lines are skipped.
func logAttemptOutput(oc *dispatch.OperationContext, output string) {
	if output == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(output, "\r\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		appendAndPublish(oc, logstore.Entry{
			Timestamp: time.Now(),
			Stream:    logstore.StreamStdout,
			StepID:    oc.StepID,
			Message:   line,
		})
	}
}

// logAttemptFailure appends a stderr log entry for a failed (but
// retryable) attempt, using oc's exported collaborators directly since
// OperationContext's own log helper is unexported to this package.
func logAttemptFailure(oc *dispatch.OperationContext, attempt, attempts int, err error) {
	msg := err.Error()
	if attempts > 1 {
		msg = fmt.Sprintf("attempt %d/%d: %s", attempt, attempts, msg)
	}
	appendAndPublish(oc, logstore.Entry{
		Timestamp: time.Now(),
		Stream:    logstore.StreamStderr,
		StepID:    oc.StepID,
		Message:   msg,
	})
}

// appendAndPublish writes entry to the execution's log and emits the
// matching log_appended event, keeping on-disk and event ordering in step.
func appendAndPublish(oc *dispatch.OperationContext, entry logstore.Entry) {
	if oc.Logs != nil {
		_ = oc.Logs.Append(oc.ExecutionID, entry)
	}
	if oc.Events != nil {
		oc.Events.Publish(eventbus.Event{
			Topic:   eventbus.TopicLogAppended,
			Payload: eventbus.LogAppendedPayload{Exec: oc.ExecutionID, Entry: entry},
		})
	}
}
