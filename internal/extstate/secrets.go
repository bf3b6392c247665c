// SPDX-License-Identifier: MPL-2.0

package extstate

import (
	"encoding/json"
	"os"
	"sync"

	"doppio-engine/internal/engineerr"
)

// SecretsStore is a JSON-file-backed stub standing in for an OS
// keychain. A real deployment points the engine
// at an actual keychain-backed implementation of the same narrow interface
// this type satisfies; this one exists so the engine is runnable without
// one, and so tests never need a platform keychain.
type SecretsStore struct {
	path string
	mu   sync.RWMutex
}

// NewSecretsStore returns a SecretsStore backed by path.
func NewSecretsStore(path string) *SecretsStore {
	return &SecretsStore{path: path}
}

func (s *SecretsStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, engineerr.IO("extstate.SecretsStore.load", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, engineerr.InvalidInput("extstate.SecretsStore.load", err)
	}
	return entries, nil
}

// Get returns the secret named name, if present. This is the
// `SecretsStore.get(name) → string` contract internal/dispatch's
// `${secret:name}` interpolation consumes.
func (s *SecretsStore) Get(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[name]
	return v, ok, nil
}

// Set stores a secret, creating the backing file if needed. Exists for
// test setup and local development; a keychain-backed implementation would
// normally own writes through its own OS-level UI instead.
func (s *SecretsStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[name] = value
	return writeAtomic(s.path, entries)
}
