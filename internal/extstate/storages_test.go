// SPDX-License-Identifier: MPL-2.0

package extstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStoragesFixture(t *testing.T, path string, entries map[string]RawStorageEntry) {
	t.Helper()
	data, err := json.MarshalIndent(entries, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestStorageTable_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	st := NewStorageTable(filepath.Join(t.TempDir(), "storages.json"))
	_, ok, err := st.Lookup("checkpoints")
	require.NoError(t, err)
	require.False(t, ok)

	all, err := st.All()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestStorageTable_LookupAndAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storages.json")
	writeStoragesFixture(t, path, map[string]RawStorageEntry{
		"checkpoints": {Kind: "s3", Config: json.RawMessage(`{"bucket":"my-bucket","region":"us-east-1"}`)},
		"datasets":    {Kind: "sftp", Config: json.RawMessage(`{"host":"data.internal","user":"trainer"}`)},
	})

	st := NewStorageTable(path)

	entry, ok, err := st.Lookup("checkpoints")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "s3", entry.Kind)

	var cfg struct {
		Bucket string `json:"bucket"`
		Region string `json:"region"`
	}
	require.NoError(t, json.Unmarshal(entry.Config, &cfg))
	require.Equal(t, "my-bucket", cfg.Bucket)
	require.Equal(t, "us-east-1", cfg.Region)

	_, ok, err = st.Lookup("unknown")
	require.NoError(t, err)
	require.False(t, ok)

	all, err := st.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "sftp", all["datasets"].Kind)
}

func TestStorageTable_CorruptFileErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storages.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid"), 0o644))

	st := NewStorageTable(path)
	_, _, err := st.Lookup("anything")
	require.Error(t, err)

	_, err = st.All()
	require.Error(t, err)
}
