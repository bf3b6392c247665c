//go:build !windows

// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"github.com/creack/pty"
)

// startPty starts cmd attached to a new pseudo-terminal, returning the PTY
// master end.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

// setWinsize sets the window size for the PTY master f.
func setWinsize(f *os.File, cols, rows int) {
	syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(syscall.TIOCSWINSZ),
		uintptr(unsafe.Pointer(&struct {
			rows, cols, x, y uint16
		}{uint16(rows), uint16(cols), 0, 0})))
}
