// SPDX-License-Identifier: MPL-2.0

// Package logstore appends execution log entries to a per-execution
// JSONL file and serves paginated reads via a byte cursor, so a UI can
// tail a running (or finished) execution without re-reading bytes it has
// already seen.
package logstore
