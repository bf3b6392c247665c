// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"time"

	"doppio-engine/internal/skill"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/storage"
	"doppio-engine/internal/terminal"
)

// HostResolver is the narrow view onto internal/hostresolve.Resolver this
// package needs: resolving a host id to an SSH endpoint, plus the
// deadline-bounded retry VastStart waits on.
type HostResolver interface {
	Resolve(ctx context.Context, hostID string) (sshtarget.Endpoint, error)
	ResolveWithRetry(ctx context.Context, hostID string, deadline time.Duration) (sshtarget.Endpoint, error)
	// InstanceID derives a marketplace instance id from ref (a `vast:<n>`
	// string or a host id whose record carries vast_instance_id).
	InstanceID(ref string) (string, error)
}

// SecretsStore is the narrow view onto internal/extstate.SecretsStore (or a
// real keychain-backed implementation) that ${secret:name} interpolation
// consumes.
type SecretsStore interface {
	Get(name string) (string, bool, error)
}

// StorageProvider is the narrow view onto internal/storage.Registry that
// GdriveMount needs to read a storage's OAuth token/client credentials.
type StorageProvider interface {
	Get(storageID string) (storage.StorageSpec, error)
}

// TransferEngine is the narrow view onto internal/transfer.Engine the
// Transfer/RsyncUpload/RsyncDownload handlers delegate to.
type TransferEngine interface {
	Transfer(ctx context.Context, tr skill.Transfer, onProgress func(string)) error
}

// MarketplaceClient is the narrow view onto internal/marketplace.Client the
// VastStart/Stop/Destroy handlers call through.
type MarketplaceClient interface {
	Start(ctx context.Context, instanceID string) error
	Stop(ctx context.Context, instanceID string) error
	Destroy(ctx context.Context, instanceID string) error
}

// TerminalManager is the narrow view onto internal/terminal.Manager that
// RunCommands' tmux "new"/"existing" modes need: a live PTY-attached
// session, keyed by id, that the marker protocol runs step commands
// through.
type TerminalManager interface {
	Get(id string) (*terminal.Session, bool)
	Register(s *terminal.Session)
}
