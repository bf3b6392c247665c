// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"runtime"
	"strconv"

	"doppio-engine/internal/skill"
	"doppio-engine/internal/subproc"
	"doppio-engine/pkg/platform"
)

// handleNotify delivers an OS-native notification from the engine's own
// host (never over SSH — Notify always targets the machine running the
// scheduler). Each OS branch is best-effort: a missing notifier binary is
// logged as progress rather than failing the step; platforms without a
// notifier wired still report success.
func (r *Registry) handleNotify(ctx context.Context, oc *OperationContext, op skill.Operation) (Result, error) {
	n := op.(skill.Notify)
	title, err := oc.interp(n.Title)
	if err != nil {
		return Result{}, err
	}
	message, err := oc.interp(n.Message)
	if err != nil {
		return Result{}, err
	}

	argv := notifyArgv(title, message)
	if argv == nil {
		oc.progress("notify: no native notifier wired for " + runtime.GOOS + "; skipped")
		return Result{ExitCode: 0}, nil
	}

	res := r.runner.Run(ctx, subproc.Spec{Argv: argv})
	if res.Err != nil {
		oc.progress("notify: " + res.Err.Error())
	}
	return Result{ExitCode: 0}, nil
}

// notifyArgv returns the argv for the platform's native notifier, or nil
// when none is wired for runtime.GOOS.
func notifyArgv(title, message string) []string {
	switch runtime.GOOS {
	case platform.Linux:
		return []string{"notify-send", title, message}
	case platform.Darwin:
		// AppleScript string literals are double-quoted; strconv.Quote's
		// escaping is compatible.
		script := "display notification " + strconv.Quote(message) + " with title " + strconv.Quote(title)
		return []string{"osascript", "-e", script}
	case platform.Windows:
		// No native notifier wired; the operation still succeeds.
		return nil
	default:
		return nil
	}
}
