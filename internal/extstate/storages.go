// SPDX-License-Identifier: MPL-2.0

package extstate

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"doppio-engine/internal/engineerr"
)

// RawStorageEntry is one storages.json entry before it is decoded into a
// typed StorageSpec. Kind selects which concrete spec Config decodes
// into (internal/storage owns that conversion so this package does not
// need to know every storage backend's shape).
type RawStorageEntry struct {
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config"`
}

// StorageTable is a JSON-file-backed read view of storages.json.
type StorageTable struct {
	path string
	mu   sync.RWMutex
}

// NewStorageTable returns a StorageTable backed by path.
func NewStorageTable(path string) *StorageTable {
	return &StorageTable{path: path}
}

func (t *StorageTable) load() (map[string]RawStorageEntry, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]RawStorageEntry{}, nil
		}
		return nil, engineerr.IO("extstate.StorageTable.load", err)
	}
	if len(data) == 0 {
		return map[string]RawStorageEntry{}, nil
	}
	var entries map[string]RawStorageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, engineerr.InvalidInput("extstate.StorageTable.load", fmt.Errorf("parsing %s: %w", t.path, err))
	}
	return entries, nil
}

// Lookup returns the raw entry for storageID, if present.
func (t *StorageTable) Lookup(storageID string) (RawStorageEntry, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries, err := t.load()
	if err != nil {
		return RawStorageEntry{}, false, err
	}
	e, ok := entries[storageID]
	return e, ok, nil
}

// All returns every entry in the file, keyed by storage id.
func (t *StorageTable) All() (map[string]RawStorageEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.load()
}
