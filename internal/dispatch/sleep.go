// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"time"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// handleSleep pauses the step for Seconds, honoring cancellation.
func (r *Registry) handleSleep(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	s := op.(skill.Sleep)
	timer := time.NewTimer(time.Duration(s.Seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return Result{ExitCode: 0}, nil
	case <-ctx.Done():
		return Result{ExitCode: 130}, engineerr.Command("dispatch.Sleep", ctx.Err())
	}
}
