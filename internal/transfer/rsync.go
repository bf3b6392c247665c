// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/subproc"
)

// lenientSSHExitCodes are rsync exit codes treated as success whenever an
// ssh transport is in play: 255 (connection closed after transfer,
// common behind tunneled proxies) and 24 (source files vanished mid-sync).
var lenientSSHExitCodes = map[int]bool{255: true, 24: true}

func rsyncBaseArgs(excludePatterns []string, delete bool) []string {
	args := []string{"-av", "--progress"}
	if delete {
		args = append(args, "--delete")
	}
	for _, p := range excludePatterns {
		args = append(args, "--exclude="+p)
	}
	return args
}

// runStreaming runs spec, forwarding each stdout/stderr line to onProgress
// (if non-nil) as it arrives, and returns the final result.
func (e *Engine) runStreaming(ctx context.Context, spec subproc.Spec, onProgress func(string)) subproc.Result {
	lines, results := e.runner.Start(ctx, spec)
	for line := range lines {
		if onProgress != nil {
			onProgress(line.Text)
		}
	}
	return <-results
}

// rsyncLocal runs a local-to-local rsync, honoring src's own trailing-slash
// convention (rsync's native rule).
func (e *Engine) rsyncLocal(ctx context.Context, src, dst string, excludePatterns []string, delete bool, onProgress func(string)) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return engineerr.IO("transfer.rsyncLocal", fmt.Errorf("mkdir parent of %q: %w", dst, err))
	}
	argv := append([]string{"rsync"}, rsyncBaseArgs(excludePatterns, delete)...)
	argv = append(argv, src, dst)
	res := e.runStreaming(ctx, subproc.Spec{Argv: argv}, onProgress)
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return engineerr.Command("transfer.rsyncLocal", fmt.Errorf("rsync %s -> %s exited %d", src, dst, res.ExitCode))
	}
	return nil
}

// rsyncDirection selects which side of the ssh-wrapped rsync invocation is
// local.
type rsyncDirection int

const (
	upload rsyncDirection = iota
	download
)

// rsyncSSH runs an rsync transfer between localPath and remotePath on ep,
// via a temp ssh-wrapper script (rsync's `-e` only accepts one string).
// Non-zero exit codes in lenientSSHExitCodes are treated as success.
func (e *Engine) rsyncSSH(ctx context.Context, ep sshtarget.Endpoint, localPath, remotePath string, dir rsyncDirection, excludePatterns []string, delete bool, onProgress func(string)) error {
	wrapperPath, err := sshtarget.WriteRsyncWrapper(ep, sshtarget.ModeBatch)
	if err != nil {
		return err
	}
	defer sshtarget.RemoveWrapper(wrapperPath)

	argv := append([]string{"rsync"}, rsyncBaseArgs(excludePatterns, delete)...)
	argv = append(argv, sshtarget.RsyncRSHFlag(wrapperPath)...)

	remoteArg := ep.UserHost() + ":" + remotePath
	if dir == upload {
		argv = append(argv, localPath, remoteArg)
	} else {
		argv = append(argv, remoteArg, localPath)
	}

	res := e.runStreaming(ctx, subproc.Spec{Argv: argv}, onProgress)
	if res.Err != nil && lenientSSHExitCodes[res.ExitCode] {
		res.Err = nil
	}
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 && !lenientSSHExitCodes[res.ExitCode] {
		return engineerr.Command("transfer.rsyncSSH", fmt.Errorf("rsync %s <-> %s exited %d", localPath, remotePath, res.ExitCode))
	}
	return nil
}

// mkdirHost runs `mkdir -p path` on ep over a one-shot batch ssh exec.
func (e *Engine) mkdirHost(ctx context.Context, ep sshtarget.Endpoint, path string) error {
	cmd := fmt.Sprintf("mkdir -p %s", shQuote(path))
	argv := append([]string{"ssh"}, sshtarget.RemoteShellCommand(ep, cmd)...)
	res := e.runner.Run(ctx, subproc.Spec{Argv: argv})
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 && !lenientSSHExitCodes[res.ExitCode] {
		return engineerr.Command("transfer.mkdirHost", fmt.Errorf("mkdir -p %q on remote exited %d", path, res.ExitCode))
	}
	return nil
}

// cpHostLocal runs `mkdir -p $(dirname dst) && cp -r src dst` on ep, used
// for a same-host copy.
func (e *Engine) cpHostLocal(ctx context.Context, ep sshtarget.Endpoint, src, dst string) error {
	cmd := fmt.Sprintf("mkdir -p %s && cp -r %s %s",
		shQuote(filepath.Dir(dst)), shQuote(src), shQuote(dst))
	argv := append([]string{"ssh"}, sshtarget.RemoteShellCommand(ep, cmd)...)
	res := e.runner.Run(ctx, subproc.Spec{Argv: argv, Timeout: 0})
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return engineerr.Command("transfer.cpHostLocal", fmt.Errorf("cp -r %q %q on remote exited %d", src, dst, res.ExitCode))
	}
	return nil
}

// shQuote is the minimal single-quote-doubling quoter used for plain
// path/flag tokens (paired with the heavier mvdan.cc/sh/v3 quoting used
// for the rsync wrapper's own option set in internal/sshtarget).
func shQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\\', '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
