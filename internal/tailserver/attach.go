// SPDX-License-Identifier: MPL-2.0

package tailserver

import (
	"fmt"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// attachMiddleware streams the authenticated execution's terminal output to
// the connecting client until the session ends or the execution's stream
// closes. The session is read-only: anything the client types is discarded.
func (s *Server) attachMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			executionID, _ := sess.Context().Value("executionID").(string)
			if executionID == "" {
				_, _ = fmt.Fprintln(sess.Stderr(), "tailserver: no execution bound to this session")
				_ = sess.Exit(1) //nolint:errcheck // terminal operation, error non-critical
				return
			}

			stream, err := s.source.Attach(executionID)
			if err != nil {
				_, _ = fmt.Fprintf(sess.Stderr(), "tailserver: attach failed: %v\n", err)
				_ = sess.Exit(1) //nolint:errcheck // terminal operation, error non-critical
				return
			}
			defer stream.Close()

			go func() {
				// Discard anything the client sends; attachment is read-only.
				buf := make([]byte, 1024)
				for {
					if _, err := sess.Read(buf); err != nil {
						return
					}
				}
			}()

			if _, err := copyUntilClosed(sess, stream); err != nil {
				s.logger.Debug("attach stream ended", "execution_id", executionID, "error", err)
			}

			_ = sess.Exit(0) //nolint:errcheck // terminal operation, error non-critical
		}
	}
}
