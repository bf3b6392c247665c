// SPDX-License-Identifier: MPL-2.0

package sshtarget

import (
	"fmt"
	"os"

	"doppio-engine/internal/engineerr"
	"doppio-engine/pkg/types"
)

// Endpoint describes the target of an SSH, scp, or rsync invocation.
// It is validated before use; construction alone never touches the network
// or filesystem except for the optional key-path existence check.
type Endpoint struct {
	Host      string
	Port      types.ListenPort
	User      string
	KeyPath   types.FilesystemPath
	ExtraArgs []string
}

// Validate checks host/user non-empty, port in range, and key path
// existence if set. Extra args are not validated; they are appended last so
// callers can override any earlier option (e.g. ProxyCommand for a tunnel).
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return engineerr.InvalidInput("sshtarget.Endpoint.Validate", fmt.Errorf("host is required"))
	}
	if e.User == "" {
		return engineerr.InvalidInput("sshtarget.Endpoint.Validate", fmt.Errorf("user is required"))
	}
	if err := e.Port.Validate(); err != nil {
		return engineerr.InvalidInput("sshtarget.Endpoint.Validate", err)
	}
	if e.Port == 0 {
		return engineerr.InvalidInput("sshtarget.Endpoint.Validate", fmt.Errorf("port is required (0 means auto-select, not valid for an SSH target)"))
	}
	if e.KeyPath != "" {
		if ok, errs := e.KeyPath.IsValid(); !ok {
			return engineerr.InvalidInput("sshtarget.Endpoint.Validate", errs[0])
		}
		if _, err := os.Stat(e.KeyPath.String()); err != nil {
			return engineerr.InvalidInput("sshtarget.Endpoint.Validate", fmt.Errorf("key path %q: %w", e.KeyPath, err))
		}
	}
	return nil
}

// UserHost returns the "user@host" form used by ssh/scp/rsync target args.
func (e Endpoint) UserHost() string {
	return fmt.Sprintf("%s@%s", e.User, e.Host)
}
