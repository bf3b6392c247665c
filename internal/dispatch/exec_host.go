// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/subproc"
)

// hostExec streams script's execution on hostID (hostresolve.LocalHostID
// runs it through the local shell instead of ssh), forwarding each output
// line through onLine as it arrives, and returns its exit code and
// combined stdout.
func hostExec(ctx context.Context, runner *subproc.Runner, hosts HostResolver, hostID, script, workDir string, env []string, onLine func(line string)) (exitCode int, stdout string, err error) {
	var argv []string
	if hostID == hostresolve.LocalHostID || hostID == "" {
		argv = []string{"/bin/sh", "-c", script}
	} else {
		ep, rerr := hosts.Resolve(ctx, hostID)
		if rerr != nil {
			return -1, "", rerr
		}
		argv = append([]string{"ssh"}, sshtarget.RemoteShellCommand(ep, script)...)
	}

	lines, results := runner.Start(ctx, subproc.Spec{Argv: argv, WorkDir: workDir, Env: env})
	var out strings.Builder
	for line := range lines {
		if line.Stream == subproc.Stdout {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(line.Text)
		}
		if onLine != nil {
			onLine(line.Text)
		}
	}
	res := <-results
	if res.Err != nil {
		return res.ExitCode, out.String(), res.Err
	}
	return res.ExitCode, out.String(), nil
}

// mkdirHost runs `mkdir -p path` on hostID over a one-shot exec.
func mkdirHost(ctx context.Context, runner *subproc.Runner, hosts HostResolver, hostID, path string) error {
	exitCode, _, err := hostExec(ctx, runner, hosts, hostID, fmt.Sprintf("mkdir -p %s", shQuote(path)), "", nil, nil)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return engineerr.Command("dispatch.mkdirHost", fmt.Errorf("mkdir -p %q on %q exited %d", path, hostID, exitCode))
	}
	return nil
}

// shQuote is the minimal single-quote-doubling quoter used for plain
// path/flag tokens in command composition.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// trimTrailingNewline mirrors GetValue's "trimmed stdout" contract.
func trimTrailingNewline(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// firstNonEmptyLine scans s for the first non-blank line, used to report a
// short progress summary from potentially multi-line command output.
func firstNonEmptyLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line
		}
	}
	return ""
}
