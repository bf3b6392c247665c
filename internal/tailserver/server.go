// SPDX-License-Identifier: MPL-2.0

package tailserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated ServerState = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is running and accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or hit a fatal error (terminal state).
	StateFailed
)

type (
	// ServerState is the lifecycle state of the tail server.
	ServerState int32

	// Token authorizes one client to attach, read-only, to one execution's
	// terminal output.
	Token struct {
		Value       TokenValue
		CreatedAt   time.Time
		ExpiresAt   time.Time
		ExecutionID string
	}

	// SessionSource resolves an execution id to a live stream of terminal
	// output. Implemented by internal/terminal's session manager; kept as an
	// interface here so tailserver never imports the scheduler/terminal
	// packages directly.
	SessionSource interface {
		// Attach returns a reader of the execution's terminal output from the
		// current point in the stream. The returned closer detaches the
		// client when closed; it does not affect the underlying execution.
		Attach(executionID string) (io.ReadCloser, error)
	}

	// Server is the SSH server that serves read-only terminal attachments.
	// A Server instance is single-use: once stopped or failed, create a new one.
	Server struct {
		cfg    Config
		source SessionSource

		state atomic.Int32

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string

		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{}
		errCh     chan error
		lastErr   error

		tokens  map[TokenValue]*Token
		tokenMu sync.RWMutex

		logger *log.Logger
	}

	// Config holds immutable configuration for the tail server.
	Config struct {
		// Host is the address to bind to (default 127.0.0.1).
		Host HostAddress
		// Port is the port to listen on (0 auto-selects).
		Port ListenPort
		// TokenTTL bounds how long an attach token stays valid.
		TokenTTL time.Duration
		// ShutdownTimeout bounds graceful shutdown.
		ShutdownTimeout time.Duration
		// StartupTimeout bounds how long Start waits for readiness.
		StartupTimeout time.Duration
	}

	// AttachInfo is what a caller needs to connect and attach.
	AttachInfo struct {
		Host     string
		Port     int
		Token    TokenValue
		ExpireAt time.Time
	}
)

// String returns a human-readable representation of the server state.
func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultConfig returns the default tail server configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		TokenTTL:        5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
	}
}

// New creates a tail server backed by source. The server is not started.
func New(cfg Config, source SessionSource) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		source:    source,
		tokens:    make(map[TokenValue]*Token),
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "tail-server"}),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// Start starts the server and blocks until it is ready, fails, or the
// context/startup timeout elapses. After Start returns nil, use Err() to
// monitor for runtime failures.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.lastErr
	default:
	}

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", ServerState(s.state.Load()))
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastErr
	}

	s.srvMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(
			activeterm.Middleware(),
			s.attachMiddleware(),
		),
	)
	if err != nil {
		_ = listener.Close()
		s.transitionToFailed(fmt.Errorf("failed to create tail server: %w", err))
		return s.lastErr
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.wg.Add(1)
	go s.serve()

	s.wg.Add(1)
	go s.cleanupExpiredTokens()

	select {
	case <-s.startedCh:
		s.logger.Info("tail server started", "address", s.addr)
		return nil
	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err
	case <-startupCtx.Done():
		s.cancel()
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastErr
	}
}

// Stop gracefully stops the server. Safe to call multiple times.
func (s *Server) Stop() error {
	for {
		switch current := ServerState(s.state.Load()); current {
		case StateStopped, StateFailed:
			return nil
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return nil
			}
			continue
		case StateStopping:
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			if !s.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			return s.doStop()
		default:
			return fmt.Errorf("unknown server state: %d", current)
		}
	}
}

// Err returns a channel that receives fatal server errors. Closed on stop.
func (s *Server) Err() <-chan error { return s.errCh }

// State returns the current server state.
func (s *Server) State() ServerState { return ServerState(s.state.Load()) }

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool { return s.State() == StateRunning }

// Address returns the bound host:port. Blocks until started or failed.
func (s *Server) Address() string {
	select {
	case <-s.startedCh:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// Port returns the listening port, or 0 if the server never started.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0
	}
	return port
}

// Host returns the configured bind host.
func (s *Server) Host() string { return string(s.cfg.Host) }

// Wait blocks until the server stops, returning the failure cause if any.
func (s *Server) Wait() error {
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.lastErr
	}
	return nil
}

// IssueAttachToken mints a token authorizing read-only attachment to
// executionID and returns the info a client needs to connect.
func (s *Server) IssueAttachToken(executionID string) (*AttachInfo, error) {
	if !s.IsRunning() {
		return nil, fmt.Errorf("tail server is not running (state: %s)", s.State())
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	value := TokenValue(hex.EncodeToString(tokenBytes))
	now := time.Now()

	token := &Token{
		Value:       value,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.TokenTTL),
		ExecutionID: executionID,
	}

	s.tokenMu.Lock()
	s.tokens[value] = token
	s.tokenMu.Unlock()

	s.logger.Debug("issued attach token", "execution_id", executionID)

	return &AttachInfo{
		Host:     string(s.cfg.Host),
		Port:     s.Port(),
		Token:    value,
		ExpireAt: token.ExpiresAt,
	}, nil
}

// RevokeTokensForExecution invalidates every outstanding token for an
// execution, e.g. once it finishes.
func (s *Server) RevokeTokensForExecution(executionID string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	for value, token := range s.tokens {
		if token.ExecutionID == executionID {
			delete(s.tokens, value)
		}
	}
}

func (s *Server) validateToken(value TokenValue) (*Token, bool) {
	s.tokenMu.RLock()
	token, exists := s.tokens[value]
	s.tokenMu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(token.ExpiresAt) {
		s.tokenMu.Lock()
		delete(s.tokens, value)
		s.tokenMu.Unlock()
		return nil, false
	}
	return token, true
}

func (s *Server) serve() {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.srvMu.Lock()
	srv := s.srv
	listener := s.listener
	s.srvMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	if err := srv.Serve(listener); err != nil {
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
			s.logger.Error("tail server error (channel full)", "error", err)
		}
	}
}

func (s *Server) doStop() error {
	if s.cancel != nil {
		s.cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.srvMu.Unlock()

	s.wg.Wait()

	s.state.Store(int32(StateStopped))
	s.logger.Info("tail server stopped")
	close(s.errCh)

	return shutdownErr
}

func (s *Server) transitionToFailed(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case s.errCh <- err:
	default:
	}
}

func (s *Server) cleanupExpiredTokens() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tokenMu.Lock()
			now := time.Now()
			for value, token := range s.tokens {
				if now.After(token.ExpiresAt) {
					delete(s.tokens, value)
				}
			}
			s.tokenMu.Unlock()
		}
	}
}

func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
