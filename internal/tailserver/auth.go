// SPDX-License-Identifier: MPL-2.0

package tailserver

import "github.com/charmbracelet/ssh"

// passwordHandler authenticates a connection by treating the SSH password as
// an attach token.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	token, valid := s.validateToken(TokenValue(password))
	if !valid {
		s.logger.Warn("rejected attach attempt with invalid or expired token", "user", ctx.User())
		return false
	}

	ctx.SetValue("token", token)
	ctx.SetValue("executionID", token.ExecutionID)

	s.logger.Debug("attach token accepted", "execution_id", token.ExecutionID)
	return true
}

// publicKeyHandler always rejects public key auth; only token auth is supported.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	return false
}
