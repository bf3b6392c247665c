// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/skill"
)

// duplicateSessionMarkers are substrings tmux's stderr carries when
// `new-session` targets a name that already exists; handleTmuxNew treats
// these as success rather than failure.
var duplicateSessionMarkers = []string{"duplicate session", "already exists"}

func (r *Registry) handleTmuxNew(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	tn := op.(skill.TmuxNew)
	hostID := oc.effectiveHostID(tn.HostID)
	sessionName, err := oc.interp(tn.SessionName)
	if err != nil {
		return Result{}, err
	}

	// The "duplicate session" diagnostic lands on tmux's stderr; fold it
	// into stdout so isDuplicateSessionError sees it.
	script := fmt.Sprintf("tmux new-session -d -s %s 2>&1", shQuote(sessionName))
	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script, "", nil, oc.progress)
	if exitCode != 0 && isDuplicateSessionError(stdout) {
		return Result{ExitCode: 0, Output: stdout}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.TmuxNew",
			fmt.Errorf("tmux new-session on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

func isDuplicateSessionError(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range duplicateSessionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// handleTmuxSend sends each non-empty, non-comment line as keys plus Enter
// to an existing tmux session via a one-shot `tmux send-keys` exec.
func (r *Registry) handleTmuxSend(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	ts := op.(skill.TmuxSend)
	hostID := oc.effectiveHostID(ts.HostID)
	sessionName, err := oc.interp(ts.SessionName)
	if err != nil {
		return Result{}, err
	}
	keys, err := oc.interp(ts.Keys)
	if err != nil {
		return Result{}, err
	}

	script := fmt.Sprintf("tmux send-keys -t %s %s Enter", shQuote(sessionName), shQuote(keys))
	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script, "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.TmuxSend",
			fmt.Errorf("tmux send-keys on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

func (r *Registry) handleTmuxKill(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	tk := op.(skill.TmuxKill)
	hostID := oc.effectiveHostID(tk.HostID)
	sessionName, err := oc.interp(tk.SessionName)
	if err != nil {
		return Result{}, err
	}

	script := fmt.Sprintf("tmux kill-session -t %s", shQuote(sessionName))
	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script, "", nil, oc.progress)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.TmuxKill",
			fmt.Errorf("tmux kill-session on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}

// handleTmuxCapture captures pane output, optionally from a scrollback
// start line (`-S <n>`), into Result.Output.
func (r *Registry) handleTmuxCapture(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	tc := op.(skill.TmuxCapture)
	hostID := oc.effectiveHostID(tc.HostID)
	sessionName, err := oc.interp(tc.SessionName)
	if err != nil {
		return Result{}, err
	}

	var script strings.Builder
	script.WriteString("tmux capture-pane -p")
	if tc.StartLine != nil {
		fmt.Fprintf(&script, " -S %s", strconv.Itoa(*tc.StartLine))
	}
	fmt.Fprintf(&script, " -t %s", shQuote(sessionName))

	exitCode, stdout, err := hostExec(ctx, r.runner, oc.Hosts, hostID, script.String(), "", nil, nil)
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{ExitCode: exitCode, Output: stdout}, engineerr.Command("dispatch.TmuxCapture",
			fmt.Errorf("tmux capture-pane on %q exited %d", hostID, exitCode))
	}
	return Result{ExitCode: exitCode, Output: stdout}, nil
}
