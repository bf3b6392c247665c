// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"doppio-engine/internal/engineerr"
)

// Spec describes how to start a Session's child process.
type Spec struct {
	// Argv is the command to run as the session's child: a login shell for
	// a local session, or an `ssh -tt ... tmux new -A -s <name>` argv for a
	// remote/tmux-backed one.
	Argv []string
	// WorkDir is the child's working directory, if any.
	WorkDir string
	// Env overlays additional KEY=VALUE entries onto the inherited
	// environment.
	Env []string
}

// Session owns one PTY pair, its child process, and the output ring buffer
// that a dedicated reader goroutine fills. A Session is safe for concurrent
// use; only the goroutine that created it may Close it, but any caller may
// read its history or wait for markers.
type Session struct {
	ID    string
	Title string

	pty *os.File
	cmd *exec.Cmd
	rb  *RingBuffer

	closed atomic.Bool
	exited chan struct{}
	exitMu sync.Mutex
	exitOK error

	onData func(data []byte)
}

// Start launches spec's child attached to a new PTY and begins the reader
// goroutine. onData, if non-nil, is invoked with each chunk read from the
// PTY (used to publish term:data events); it must not block.
func Start(id, title string, spec Spec, ringCapBytes int, onData func([]byte)) (*Session, error) {
	if len(spec.Argv) == 0 {
		return nil, engineerr.InvalidInput("terminal.Start", fmt.Errorf("empty argv"))
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	f, err := startPty(cmd)
	if err != nil {
		return nil, engineerr.Command("terminal.Start", fmt.Errorf("starting pty: %w", err))
	}

	s := &Session{
		ID:     id,
		Title:  title,
		pty:    f,
		cmd:    cmd,
		rb:     NewRingBuffer(ringCapBytes),
		exited: make(chan struct{}),
		onData: onData,
	}

	go s.readLoop()
	go s.waitLoop()

	return s, nil
}

func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.rb.Write(chunk)
			if s.onData != nil {
				s.onData(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) waitLoop() {
	err := s.cmd.Wait()
	s.exitMu.Lock()
	s.exitOK = err
	s.exitMu.Unlock()
	close(s.exited)
}

// Write sends raw bytes to the PTY (keystrokes, control characters).
func (s *Session) Write(p []byte) error {
	if s.closed.Load() {
		return engineerr.Internal("terminal.Session.Write", fmt.Errorf("session %s is closed", s.ID))
	}
	_, err := s.pty.Write(p)
	if err != nil {
		return engineerr.IO("terminal.Session.Write", err)
	}
	return nil
}

// SendLine writes line followed by a newline, the normal way to feed a
// command or a credential response into the pane.
func (s *Session) SendLine(line string) error {
	return s.Write([]byte(line + "\n"))
}

// Interrupt sends Ctrl-C (0x03) to the PTY, used before a tmux kill-session
// when cancelling a step without tearing down the whole shared session.
func (s *Session) Interrupt() error {
	return s.Write([]byte{0x03})
}

// Resize sets the PTY window size.
func (s *Session) Resize(cols, rows int) {
	setWinsize(s.pty, cols, rows)
}

// HistoryReadRange is the byte-cursor history read API:
// a byte-cursor read of the session's ring buffer.
func (s *Session) HistoryReadRange(offset int64, max int) (data []byte, nextOffset int64) {
	return s.rb.ReadRange(offset, max)
}

// Len returns the total number of bytes ever written to the ring buffer.
func (s *Session) Len() int64 { return s.rb.Len() }

// NewMarkerWaiter returns a MarkerWaiter bound to this session's ring
// buffer, configured with pollInterval/maxScrollbackLines (zero uses the
// package defaults).
func (s *Session) NewMarkerWaiter(pollInterval time.Duration, maxScrollbackLines int) *MarkerWaiter {
	w := NewMarkerWaiter(s.rb)
	if pollInterval > 0 {
		w.PollInterval = pollInterval
	}
	if maxScrollbackLines > 0 {
		w.MaxScrollbackLines = maxScrollbackLines
	}
	return w
}

// RunStep sends the begin marker, the commands, and the done marker to the
// session, then waits for the marker pair to resolve. It is the
// marker-protocol half of RunCommands' tmux "existing"/"new" modes; callers
// in "none" mode use internal/subproc directly instead.
func (s *Session) RunStep(ctx context.Context, stepID string, commands []string, pollInterval time.Duration, maxScrollbackLines int, onProgress func(string)) (MarkerResult, error) {
	if err := s.SendLine(fmt.Sprintf(`echo "%s"`, BeginMarker(stepID))); err != nil {
		return MarkerResult{}, err
	}
	for _, line := range commands {
		trimmed := trimCommandLine(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		if err := s.SendLine(line); err != nil {
			return MarkerResult{}, err
		}
	}
	if err := s.SendLine(fmt.Sprintf(`echo "___DOPPIO_STEP_DONE_%s_$?___"`, stepID)); err != nil {
		return MarkerResult{}, err
	}
	w := s.NewMarkerWaiter(pollInterval, maxScrollbackLines)
	return w.Wait(ctx, stepID, onProgress)
}

// Closed reports whether Close has been called on this session.
func (s *Session) Closed() bool { return s.closed.Load() }

// Exited returns a channel closed once the child process has exited.
func (s *Session) Exited() <-chan struct{} { return s.exited }

// ExitErr returns the error (if any) cmd.Wait returned. Only meaningful
// after Exited() is closed.
func (s *Session) ExitErr() error {
	s.exitMu.Lock()
	defer s.exitMu.Unlock()
	return s.exitOK
}

// Close kills the child process and closes the PTY master. Safe to call
// more than once; only the goroutine that created the session should call
// it, though TerminalManager serializes
// this at the registry layer regardless.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	err := s.pty.Close()
	if err != nil {
		return engineerr.IO("terminal.Session.Close", err)
	}
	return nil
}

func trimCommandLine(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\r' || s[j-1] == '\n') {
		j--
	}
	return s[i:j]
}

func isCommentLine(trimmed string) bool {
	return len(trimmed) > 0 && trimmed[0] == '#'
}
