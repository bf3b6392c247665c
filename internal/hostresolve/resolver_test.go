// SPDX-License-Identifier: MPL-2.0

package hostresolve

import (
	"context"
	"testing"
	"time"
)

type fakeTable struct {
	records map[string]HostRecord
}

func (f fakeTable) Lookup(hostID string) (HostRecord, bool, error) {
	rec, ok := f.records[hostID]
	return rec, ok, nil
}

type fakeMarketplace struct {
	instances map[string]MarketplaceInstance
	calls     int
	failUntil int
}

func (f *fakeMarketplace) InstanceSSH(_ context.Context, instanceID string) (MarketplaceInstance, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return MarketplaceInstance{}, errNotReady
	}
	inst, ok := f.instances[instanceID]
	if !ok {
		return MarketplaceInstance{}, errNotReady
	}
	return inst, nil
}

var errNotReady = &notReadyErr{}

type notReadyErr struct{}

func (*notReadyErr) Error() string { return "instance not ready" }

func TestResolve_LocalHostSentinel(t *testing.T) {
	t.Parallel()

	r := NewResolver(fakeTable{}, nil, "root")
	_, err := r.Resolve(context.Background(), LocalHostID)
	if err != ErrLocalHost {
		t.Fatalf("err = %v, want ErrLocalHost", err)
	}
}

func TestResolve_NamedHost(t *testing.T) {
	t.Parallel()

	table := fakeTable{records: map[string]HostRecord{
		"gpu-box": {Host: "1.2.3.4", Port: 22, User: "ubuntu"},
	}}
	r := NewResolver(table, nil, "root")
	ep, err := r.Resolve(context.Background(), "gpu-box")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ep.Host != "1.2.3.4" || ep.User != "ubuntu" || ep.Port != 22 {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
}

func TestResolve_UnknownHost(t *testing.T) {
	t.Parallel()

	r := NewResolver(fakeTable{records: map[string]HostRecord{}}, nil, "root")
	_, err := r.Resolve(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected not_found error")
	}
}

func TestResolve_VastInstance(t *testing.T) {
	t.Parallel()

	mkt := &fakeMarketplace{instances: map[string]MarketplaceInstance{
		"42": {SSHHost: "ssh.vast.ai", SSHPort: 2222, User: "root"},
	}}
	r := NewResolver(fakeTable{}, mkt, "root")
	ep, err := r.Resolve(context.Background(), "vast:42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ep.Host != "ssh.vast.ai" || ep.Port != 2222 {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
}

func TestResolve_VastNonNumericInstance(t *testing.T) {
	t.Parallel()

	r := NewResolver(fakeTable{}, &fakeMarketplace{}, "root")
	_, err := r.Resolve(context.Background(), "vast:not-a-number")
	if err == nil {
		t.Fatal("expected invalid_input error for non-numeric vast instance id")
	}
}

func TestResolveWithRetry_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	mkt := &fakeMarketplace{
		instances: map[string]MarketplaceInstance{"7": {SSHHost: "h", SSHPort: 22, User: "u"}},
		failUntil: 1,
	}
	r := NewResolver(fakeTable{}, mkt, "root")

	start := time.Now()
	ep, err := r.ResolveWithRetry(context.Background(), "vast:7", 10*time.Second)
	if err != nil {
		t.Fatalf("ResolveWithRetry: %v", err)
	}
	if ep.Host != "h" {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
	if elapsed := time.Since(start); elapsed < pollInterval {
		t.Errorf("expected at least one poll interval to elapse, got %s", elapsed)
	}
}

func TestResolveWithRetry_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	r := NewResolver(fakeTable{}, &fakeMarketplace{failUntil: 1000}, "root")
	_, err := r.ResolveWithRetry(context.Background(), "vast:99", 1500*time.Millisecond)
	if err == nil {
		t.Fatal("expected deadline error")
	}
}
