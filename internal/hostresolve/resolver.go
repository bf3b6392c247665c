// SPDX-License-Identifier: MPL-2.0

package hostresolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/sshtarget"
	"doppio-engine/pkg/types"
)

// LocalHostID is the sentinel host-id meaning "this process's own
// filesystem, no SSH."
const LocalHostID = "__local__"

// ErrLocalHost is returned by Resolve for LocalHostID; SSH-based
// operations must check for it explicitly rather than attempt a
// connection.
var ErrLocalHost = fmt.Errorf("%q does not resolve to an SSH endpoint", LocalHostID)

// HostRecord is the stored shape of a named host, as read from the
// on-disk host table.
type HostRecord struct {
	Host         string
	Port         int
	User         string
	KeyPath      string
	ExtraArgs    []string
	VastInstance string
}

// HostTable is the narrow read interface onto the on-disk host table
// (hosts.json), implemented by internal/extstate.
type HostTable interface {
	Lookup(hostID string) (HostRecord, bool, error)
}

// MarketplaceInstance is the subset of a marketplace instance record
// needed to build an SSH endpoint.
type MarketplaceInstance struct {
	SSHHost string
	SSHPort int
	User    string
}

// Marketplace is the narrow interface onto the GPU-marketplace API
// needed to resolve a `vast:<n>` host reference, implemented by
// internal/marketplace.
type Marketplace interface {
	InstanceSSH(ctx context.Context, instanceID string) (MarketplaceInstance, error)
}

// Resolver resolves host-id strings into SSH endpoints.
type Resolver struct {
	table       HostTable
	marketplace Marketplace
	defaultUser string
}

// NewResolver builds a Resolver over the given host table and
// marketplace client. defaultUser is used for vast instances that don't
// carry an explicit user.
func NewResolver(table HostTable, marketplace Marketplace, defaultUser string) *Resolver {
	return &Resolver{table: table, marketplace: marketplace, defaultUser: defaultUser}
}

// Resolve looks up hostID and returns its SSH endpoint. LocalHostID
// returns ErrLocalHost. A `vast:<n>` id is resolved via the marketplace
// client; anything else is looked up in the host table.
func (r *Resolver) Resolve(ctx context.Context, hostID string) (sshtarget.Endpoint, error) {
	if hostID == LocalHostID {
		return sshtarget.Endpoint{}, ErrLocalHost
	}

	if instanceID, ok := strings.CutPrefix(hostID, "vast:"); ok {
		return r.resolveVast(ctx, instanceID)
	}

	rec, ok, err := r.table.Lookup(hostID)
	if err != nil {
		return sshtarget.Endpoint{}, engineerr.IO("hostresolve.Resolve", err)
	}
	if !ok {
		return sshtarget.Endpoint{}, engineerr.NotFound("hostresolve.Resolve", fmt.Errorf("host %q not found", hostID))
	}
	if rec.VastInstance != "" {
		return r.resolveVast(ctx, rec.VastInstance)
	}
	return sshtarget.Endpoint{
		Host:      rec.Host,
		Port:      types.ListenPort(rec.Port),
		User:      rec.User,
		KeyPath:   types.FilesystemPath(rec.KeyPath),
		ExtraArgs: rec.ExtraArgs,
	}, nil
}

// InstanceID derives a marketplace instance id from ref: a `vast:<n>`
// string yields n directly; any other ref is looked up in the host table
// and its stored vast_instance_id field is returned (the
// VastStart/Stop/Destroy instance-id derivation).
func (r *Resolver) InstanceID(ref string) (string, error) {
	if instanceID, ok := strings.CutPrefix(ref, "vast:"); ok {
		return instanceID, nil
	}
	rec, ok, err := r.table.Lookup(ref)
	if err != nil {
		return "", engineerr.IO("hostresolve.InstanceID", err)
	}
	if !ok {
		return "", engineerr.NotFound("hostresolve.InstanceID", fmt.Errorf("host %q not found", ref))
	}
	if rec.VastInstance == "" {
		return "", engineerr.InvalidInput("hostresolve.InstanceID", fmt.Errorf("host %q has no vast_instance_id", ref))
	}
	return rec.VastInstance, nil
}

func (r *Resolver) resolveVast(ctx context.Context, instanceID string) (sshtarget.Endpoint, error) {
	if r.marketplace == nil {
		return sshtarget.Endpoint{}, engineerr.Internal("hostresolve.resolveVast", fmt.Errorf("no marketplace client configured"))
	}
	if _, err := strconv.Atoi(instanceID); err != nil {
		return sshtarget.Endpoint{}, engineerr.InvalidInput("hostresolve.resolveVast", fmt.Errorf("instance id %q is not numeric: %w", instanceID, err))
	}
	inst, err := r.marketplace.InstanceSSH(ctx, instanceID)
	if err != nil {
		return sshtarget.Endpoint{}, err
	}
	user := inst.User
	if user == "" {
		user = r.defaultUser
	}
	return sshtarget.Endpoint{
		Host: inst.SSHHost,
		Port: types.ListenPort(inst.SSHPort),
		User: user,
	}, nil
}

// Deadline defaults used by ResolveWithRetry.
const (
	GeneralDeadline    = 180 * time.Second
	AfterStartDeadline = 300 * time.Second

	pollInterval = 2 * time.Second
	pollCap      = 10 * time.Second
)

// ResolveWithRetry polls Resolve every pollInterval (backing off
// exponentially, capped at pollCap) until it succeeds, the context is
// cancelled, or deadline elapses since the call began. It is used after
// VastStart/restart to wait for SSH to become reachable; the resolved
// endpoint is not itself checked for reachability here, only resolvable
// — callers that need liveness should pair this with a one-shot SSH
// probe.
func (r *Resolver) ResolveWithRetry(ctx context.Context, hostID string, deadline time.Duration) (sshtarget.Endpoint, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	backoff := pollInterval
	var lastErr error
	for {
		ep, err := r.Resolve(deadlineCtx, hostID)
		if err == nil {
			return ep, nil
		}
		lastErr = err

		select {
		case <-deadlineCtx.Done():
			return sshtarget.Endpoint{}, engineerr.Network("hostresolve.ResolveWithRetry",
				fmt.Errorf("host %q not resolvable within %s: %w", hostID, deadline, lastErr))
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > pollCap {
			backoff = pollCap
		}
	}
}
