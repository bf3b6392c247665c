// SPDX-License-Identifier: MPL-2.0

package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_InstanceSSH(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "/instances/42/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"instances": map[string]any{
				"ssh_host":      "1.2.3.4",
				"ssh_port":      2222,
				"actual_status": "running",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	inst, err := c.InstanceSSH(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", inst.SSHHost)
	require.Equal(t, 2222, inst.SSHPort)
}

func TestClient_InstanceSSH_NotReady(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"instances": map[string]any{"actual_status": "loading"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.InstanceSSH(context.Background(), "42")
	require.Error(t, err)
}

func TestClient_StartStopDestroy(t *testing.T) {
	t.Parallel()

	var gotMethods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethods = append(gotMethods, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	require.NoError(t, c.Start(context.Background(), "1"))
	require.NoError(t, c.Stop(context.Background(), "1"))
	require.NoError(t, c.Destroy(context.Background(), "1"))
	require.Equal(t, []string{http.MethodPut, http.MethodPut, http.MethodDelete}, gotMethods)
}

func TestClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	c.http.RetryMax = 0 // keep the test fast; retry policy itself is exercised by go-retryablehttp's own tests
	err := c.Destroy(context.Background(), "1")
	require.Error(t, err)
}
