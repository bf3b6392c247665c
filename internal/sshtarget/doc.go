// SPDX-License-Identifier: MPL-2.0

// Package sshtarget builds argument vectors and rsync wrapper scripts for
// ssh/scp/rsync invocations against an SSHEndpoint. It never executes
// anything itself; internal/subproc spawns the argv this package builds.
package sshtarget
