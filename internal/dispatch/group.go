// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// handleGroup should never be dispatched: Group steps are expanded into
// their member steps at skill-load time. Reaching here is an
// invariant violation in the scheduler's expansion pass.
func (r *Registry) handleGroup(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	return Result{}, engineerr.Internal("dispatch.Group", fmt.Errorf("group step %q reached the dispatcher unexpanded", oc.StepID))
}
