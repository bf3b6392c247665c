// SPDX-License-Identifier: MPL-2.0

// Package tailserver provides an SSH server that lets an operator attach a
// read-only mirror of a running execution's terminal.
//
// A client connects with `ssh -p <port> attach@<host>`, authenticates with a
// short-lived token minted for one execution id, and receives a byte-for-byte
// copy of that execution's PTY output until the session ends or the client
// disconnects. No input is ever forwarded back to the execution: the
// attachment is strictly observational.
package tailserver
