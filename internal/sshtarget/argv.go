// SPDX-License-Identifier: MPL-2.0

package sshtarget

import (
	"fmt"

	"mvdan.cc/sh/v3/syntax"
)

// Mode selects between the option set used for scripted (batch) SSH
// invocations and the set used for PTY-attached interactive sessions.
type Mode int

const (
	// ModeBatch disables password prompting entirely (BatchMode=yes), for
	// scripted SSH/rsync invocations that must never block on input.
	ModeBatch Mode = iota
	// ModeInteractive allows prompting, for PTY-backed sessions.
	ModeInteractive
)

// commonArgs returns the connection-tuning options shared by batch and
// interactive modes: a 15s connect timeout and keepalives every 30s with up
// to 4 missed before the connection is declared dead.
func commonArgs(e Endpoint) []string {
	args := []string{
		"-p", e.Port.String(),
		"-o", "ConnectTimeout=15",
		"-o", "ServerAliveInterval=30",
		"-o", "ServerAliveCountMax=4",
		"-o", "StrictHostKeyChecking=accept-new",
	}
	if e.KeyPath != "" {
		args = append(args, "-i", e.KeyPath.String())
	}
	return args
}

// Args builds the ssh/scp argument vector (excluding the binary name and
// the trailing user@host or command) for the given mode. Extra args from
// the endpoint are appended last so callers can override earlier options.
func Args(e Endpoint, mode Mode) []string {
	args := commonArgs(e)
	if mode == ModeBatch {
		args = append(args, "-o", "BatchMode=yes")
	}
	args = append(args, e.ExtraArgs...)
	return args
}

// RemoteShellCommand builds the full argv to run a remote command
// non-interactively via ssh, in batch mode.
func RemoteShellCommand(e Endpoint, remoteCmd string) []string {
	args := append([]string{}, Args(e, ModeBatch)...)
	args = append(args, e.UserHost(), remoteCmd)
	return args
}

// InteractiveShellCommand builds the argv to start an interactive PTY shell
// (or tmux attach) over ssh with a pseudo-terminal allocated (-tt).
func InteractiveShellCommand(e Endpoint, remoteCmd string) []string {
	args := []string{"-tt"}
	args = append(args, Args(e, ModeInteractive)...)
	args = append(args, e.UserHost())
	if remoteCmd != "" {
		args = append(args, remoteCmd)
	}
	return args
}

// RsyncWrapperScript renders the shell script body for the executable
// wrapper file passed to rsync's `-e`; rsync's `-e` accepts only a single
// string, so a wrapper is required to pass rsync's own complex option set
// through without rsync attempting (and failing) to re-tokenize it.
func RsyncWrapperScript(e Endpoint, mode Mode) string {
	args := Args(e, mode)
	line := "exec ssh"
	for _, a := range args {
		line += " " + shQuote(a)
	}
	line += ` "$@"` + "\n"
	return "#!/bin/sh\n" + line
}

// shQuote renders a single POSIX-safe shell word for s, using the same
// quoting the virtual shell interpreter dependency already carries rather
// than hand-rolling one. Falls back to a plain single-quote-doubling quote
// on the rare token syntax.Quote refuses (e.g. an embedded NUL byte), which
// none of the flag/value/path tokens this package emits ever contain.
func shQuote(s string) string {
	if q, err := syntax.Quote(s, syntax.LangPOSIX); err == nil {
		return q
	}
	return fmt.Sprintf("'%s'", quoteSingle(s))
}

func quoteSingle(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\\', '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
