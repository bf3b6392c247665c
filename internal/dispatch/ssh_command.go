// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// handleSshCommand runs a single command string over a one-shot SSH exec
// (or the local shell, for hostresolve.LocalHostID).
func (r *Registry) handleSshCommand(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	sc := op.(skill.SshCommand)

	hostID := oc.effectiveHostID(sc.HostID)
	command, err := oc.interp(sc.Command)
	if err != nil {
		return Result{}, err
	}

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, command, "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.SshCommand",
			fmt.Errorf("command on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}
