// SPDX-License-Identifier: MPL-2.0

// Package subproc spawns child processes and streams their stdout/stderr
// line-by-line, supporting cancellation, timeouts, and piped stdin. It is
// the sole place in the engine that calls os/exec directly for one-shot
// command execution (TerminalSession in internal/terminal owns the
// PTY-backed long-lived shells separately).
package subproc
