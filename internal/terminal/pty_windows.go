//go:build windows

// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"os"
	"os/exec"
)

// startPty starts cmd without a real PTY on Windows, wiring its stdin pipe
// as the returned "file" so the rest of this package can treat it
// uniformly.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return os.NewFile(stdin.(*os.File).Fd(), "stdin"), nil
}

// setWinsize is a no-op on Windows.
func setWinsize(f *os.File, cols, rows int) {}
