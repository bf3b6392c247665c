// SPDX-License-Identifier: MPL-2.0

// Package terminal owns TerminalSession (a PTY pair, its child process, and
// an output ring buffer) and the marker protocol that multiplexes a single
// interactive shell or tmux session across many scripted steps. A
// process-wide Manager registers sessions by id so callers that only hold
// an id (the scheduler, the tail server) can reach a live session without
// sharing a pointer.
package terminal
