// SPDX-License-Identifier: MPL-2.0

// Package transfer implements the TransferEngine: dispatching a
// Transfer operation between any combination of Local, Host, and Storage
// endpoints via rsync (local subprocess with an ssh wrapper for remote
// sides) or rclone (external binary, per DESIGN.md's Open Questions
// resolution — the corpus carries no in-process rclone library). Progress
// is forwarded line-by-line through an optional callback; rsync exit codes
// 255 and 24 are treated as success wherever an ssh transport is in play.
package transfer
