// SPDX-License-Identifier: MPL-2.0

package extstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretsStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewSecretsStore(filepath.Join(t.TempDir(), "secrets.json"))
	_, ok, err := s.Get("vast_api_key")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSecretsStore_SetGet(t *testing.T) {
	t.Parallel()

	s := NewSecretsStore(filepath.Join(t.TempDir(), "secrets.json"))
	require.NoError(t, s.Set("vast_api_key", "tok-123"))

	v, ok, err := s.Get("vast_api_key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok-123", v)

	_, ok, err = s.Get("nope")
	require.NoError(t, err)
	require.False(t, ok)
}
