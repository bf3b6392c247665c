// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"context"

	"doppio-engine/internal/sshtarget"
	"doppio-engine/internal/storage"
)

// HostResolver is the narrow slice of hostresolve.Resolver the engine
// needs, so this package does not pull in the marketplace/retry surface
// hostresolve also carries.
type HostResolver interface {
	Resolve(ctx context.Context, hostID string) (sshtarget.Endpoint, error)
}

// StorageProvider is the narrow slice of storage.Registry this package
// needs.
type StorageProvider interface {
	Get(storageID string) (storage.StorageSpec, error)
}
