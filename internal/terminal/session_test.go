// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_RunStep(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real shell")
	}

	s, err := Start("sess-1", "local", Spec{Argv: []string{"sh"}}, 0, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.RunStep(ctx, "step1", []string{"echo hi"}, 10*time.Millisecond, 5000, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Output, "hi")
}

func TestManager_AttachReplaysHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real shell")
	}

	s, err := Start("sess-2", "local", Spec{Argv: []string{"sh"}}, 0, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendLine("echo marker-output"))
	time.Sleep(200 * time.Millisecond)

	m := NewManager()
	m.Register(s)

	reader, err := m.Attach("sess-2")
	require.NoError(t, err)
	defer reader.Close()

	buf := make([]byte, 4096)
	n, err := reader.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "marker-output")
}
