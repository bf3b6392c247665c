// SPDX-License-Identifier: MPL-2.0

package extstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/hostresolve"
)

// hostFileEntry is the on-disk JSON shape of one hosts.json entry.
type hostFileEntry struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	User         string   `json:"user"`
	KeyPath      string   `json:"key_path,omitempty"`
	ExtraArgs    []string `json:"extra_args,omitempty"`
	VastInstance string   `json:"vast_instance_id,omitempty"`
	Online       bool     `json:"online"`
	NumGPUs      int      `json:"num_gpus"`
}

// HostTable is a JSON-file-backed read/write view of hosts.json,
// implementing hostresolve.HostTable. Safe for concurrent use.
type HostTable struct {
	path string
	mu   sync.RWMutex
}

// NewHostTable returns a HostTable backed by path. The file is not read
// until the first Lookup/All call.
func NewHostTable(path string) *HostTable {
	return &HostTable{path: path}
}

func (t *HostTable) load() (map[string]hostFileEntry, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]hostFileEntry{}, nil
		}
		return nil, engineerr.IO("extstate.HostTable.load", err)
	}
	if len(data) == 0 {
		return map[string]hostFileEntry{}, nil
	}
	var entries map[string]hostFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, engineerr.InvalidInput("extstate.HostTable.load", fmt.Errorf("parsing %s: %w", t.path, err))
	}
	return entries, nil
}

// Lookup implements hostresolve.HostTable.
func (t *HostTable) Lookup(hostID string) (hostresolve.HostRecord, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries, err := t.load()
	if err != nil {
		return hostresolve.HostRecord{}, false, err
	}
	e, ok := entries[hostID]
	if !ok {
		return hostresolve.HostRecord{}, false, nil
	}
	return hostresolve.HostRecord{
		Host: e.Host, Port: e.Port, User: e.User,
		KeyPath: e.KeyPath, ExtraArgs: e.ExtraArgs, VastInstance: e.VastInstance,
	}, true, nil
}

// Online reports the cached reachability flag for hostID, consumed by
// the condition engine's HostOnline predicate.
func (t *HostTable) Online(hostID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries, err := t.load()
	if err != nil {
		return false
	}
	return entries[hostID].Online
}

// GPUCount returns the cached num_gpus field for hostID, consumed by the
// condition engine's GpuAvailable predicate.
func (t *HostTable) GPUCount(hostID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries, err := t.load()
	if err != nil {
		return 0
	}
	return entries[hostID].NumGPUs
}

// writeAtomic marshals entries as indented JSON and writes it to path
// via a temp-file-plus-rename, so a reader never observes a partial
// write.
func writeAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engineerr.IO("extstate.writeAtomic", fmt.Errorf("creating directory: %w", err))
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return engineerr.Internal("extstate.writeAtomic", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return engineerr.IO("extstate.writeAtomic", fmt.Errorf("writing temp file: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return engineerr.IO("extstate.writeAtomic", fmt.Errorf("renaming temp file: %w", err))
	}
	return nil
}
