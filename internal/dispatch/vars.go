// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// handleSetVar mutates the execution's variable map. The scheduler is the
// sole owner of that map; this handler only stashes the
// intended mutation in Result.Vars for the scheduler to merge in once the
// step succeeds.
func (r *Registry) handleSetVar(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	sv := op.(skill.SetVar)
	if sv.Name == "" {
		return Result{}, engineerr.InvalidInput("dispatch.SetVar", fmt.Errorf("name is required"))
	}
	value, err := oc.interp(sv.Value)
	if err != nil {
		return Result{}, err
	}
	return Result{ExitCode: 0, Vars: map[string]string{sv.Name: value}}, nil
}

// handleGetValue captures a command's trimmed stdout into Result.Vars
// under VarName, for the scheduler to merge in.
func (r *Registry) handleGetValue(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	gv := op.(skill.GetValue)
	if gv.VarName == "" {
		return Result{}, engineerr.InvalidInput("dispatch.GetValue", fmt.Errorf("var_name is required"))
	}
	hostID := oc.effectiveHostID(gv.HostID)
	command, err := oc.interp(gv.Command)
	if err != nil {
		return Result{}, err
	}

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, command, "", nil, nil)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.GetValue",
			fmt.Errorf("command on %q exited %d", hostID, exitCode))
	}
	trimmed := trimTrailingNewline(stdout)
	return Result{ExitCode: exitCode, Output: trimmed, Vars: map[string]string{gv.VarName: trimmed}}, nil
}
