// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"time"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// defaultPollIntervalSecs backs WaitCondition when the step declares none.
const defaultPollIntervalSecs = 2.0

// handleWaitCondition polls Condition every PollIntervalSecs until it
// holds or TimeoutSecs elapses.
func (r *Registry) handleWaitCondition(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	wc := op.(skill.WaitCondition)

	poll := wc.PollIntervalSecs
	if poll <= 0 {
		poll = defaultPollIntervalSecs
	}
	interval := time.Duration(poll * float64(time.Second))

	var deadlineCh <-chan time.Time
	if wc.TimeoutSecs > 0 {
		timer := time.NewTimer(time.Duration(wc.TimeoutSecs * float64(time.Second)))
		defer timer.Stop()
		deadlineCh = timer.C
	}

	for {
		ok, err := wc.Condition.Evaluate(ctx, oc.Env)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{ExitCode: 0}, nil
		}

		select {
		case <-ctx.Done():
			return Result{ExitCode: 130}, engineerr.Command("dispatch.WaitCondition", ctx.Err())
		case <-deadlineCh:
			return Result{ExitCode: -1}, engineerr.Command("dispatch.WaitCondition",
				fmt.Errorf("condition %q did not hold within %.0fs", wc.Condition.Kind(), wc.TimeoutSecs))
		case <-time.After(interval):
		}
	}
}

// handleAssert evaluates Condition once, failing the step with Message
// (interpolated against the same variable map the condition saw) if it
// does not hold.
func (r *Registry) handleAssert(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	as := op.(skill.Assert)

	ok, err := as.Condition.Evaluate(ctx, oc.Env)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		message, ierr := oc.interp(as.Message)
		if ierr != nil {
			return Result{}, ierr
		}
		if message == "" {
			message = fmt.Sprintf("assertion failed: %s", as.Condition.Kind())
		}
		return Result{ExitCode: 1}, engineerr.Command("dispatch.Assert", fmt.Errorf("%s", message))
	}
	return Result{ExitCode: 0}, nil
}
