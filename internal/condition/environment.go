// SPDX-License-Identifier: MPL-2.0

package condition

import "context"

// Environment is the narrow surface the engine exposes to Condition
// evaluation. It is implemented by internal/scheduler (or a test double);
// condition itself never touches SSH, the host table, or the variable map
// directly, keeping it a pure evaluator over an injected view.
type Environment interface {
	// RunCheck executes script on hostID (the sentinel "__local__" means
	// the engine's own filesystem/shell) and returns its exit code and
	// trimmed stdout.
	RunCheck(ctx context.Context, hostID, script string) (exitCode int, stdout string, err error)
	// Var looks up a variable from the execution's variable map.
	Var(name string) (value string, ok bool)
	// HostOnline consults the host table's cached reachability status.
	HostOnline(hostID string) bool
	// GpuCount reads the num_gpus field off the stored host record.
	GpuCount(hostID string) int
	// GdriveMounted reports whether the named storage's Google Drive mount
	// is currently active.
	GdriveMounted(storageID string) bool
	// TmuxAlive reports whether a tmux session is alive on hostID.
	TmuxAlive(hostID, session string) bool
}
