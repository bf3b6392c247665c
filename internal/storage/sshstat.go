// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/sshtarget"
)

// HostResolver is the narrow slice of hostresolve.Resolver this package
// needs, so storage does not take on the rest of hostresolve's surface.
type HostResolver interface {
	Resolve(ctx context.Context, hostID string) (sshtarget.Endpoint, error)
}

// validateSshRemote opens an SFTP session to spec's host and stats Root, a
// cheap existence check used only by StorageRegistry.Validate — never by
// TransferEngine, which must re-express an SshRemote as a Host endpoint
// instead.
func validateSshRemote(ctx context.Context, resolver HostResolver, spec SshRemote) error {
	if resolver == nil {
		return engineerr.Internal("storage.validateSshRemote", fmt.Errorf("no host resolver configured"))
	}
	ep, err := resolver.Resolve(ctx, spec.HostID)
	if err != nil {
		return err
	}
	if ep.KeyPath == "" {
		return engineerr.InvalidInput("storage.validateSshRemote", fmt.Errorf("host %q has no key_path configured for SFTP auth", spec.HostID))
	}

	signer, err := loadSigner(ep.KeyPath.String())
	if err != nil {
		return err
	}

	cfg := &ssh.ClientConfig{
		User:            ep.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // existence probe only, never a data path
		Timeout:         10 * time.Second,
	}

	addr := net.JoinHostPort(ep.Host, ep.Port.String())
	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return engineerr.Network("storage.validateSshRemote", fmt.Errorf("dial %s: %w", addr, err))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		return engineerr.Network("storage.validateSshRemote", fmt.Errorf("ssh handshake with %s: %w", addr, err))
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return engineerr.Command("storage.validateSshRemote", fmt.Errorf("opening sftp subsystem: %w", err))
	}
	defer sc.Close()

	if _, err := sc.Stat(spec.Root); err != nil {
		return engineerr.NotFound("storage.validateSshRemote", fmt.Errorf("stat %q on %q: %w", spec.Root, spec.HostID, err))
	}
	return nil
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, engineerr.IO("storage.loadSigner", fmt.Errorf("reading key %q: %w", keyPath, err))
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, engineerr.InvalidInput("storage.loadSigner", fmt.Errorf("parsing key %q: %w", keyPath, err))
	}
	return signer, nil
}
