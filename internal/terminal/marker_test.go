// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDoneLine_ExitCodeExtraction(t *testing.T) {
	t.Parallel()

	code, ok := parseDoneLine("___DOPPIO_STEP_DONE_x_137___", "x")
	require.True(t, ok)
	require.Equal(t, 137, code)

	code, ok = parseDoneLine("___DOPPIO_STEP_DONE_x___", "x")
	require.True(t, ok)
	require.Equal(t, 0, code)

	_, ok = parseDoneLine("___DOPPIO_STEP_DONE_y_137___", "x")
	require.False(t, ok)
}

func TestMarkerWaiter_AnchoredMatch(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(0)
	// The shell echoing the command that printed the marker must not match.
	rb.Write([]byte("echo \"___DOPPIO_STEP_BEGIN_x___\"\n"))
	rb.Write([]byte(BeginMarker("x") + "\n"))
	rb.Write([]byte("hello\n"))
	rb.Write([]byte(DoneMarker("x", 0) + "\n"))

	w := &MarkerWaiter{RingBuffer: rb, PollInterval: 5 * time.Millisecond, MaxScrollbackLines: 100}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := w.Wait(ctx, "x", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hello", res.Output)
}

func TestMarkerWaiter_LatestWins(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(0)
	rb.Write([]byte(BeginMarker("x") + "\n"))
	rb.Write([]byte("stale\n"))
	rb.Write([]byte(DoneMarker("x", 1) + "\n"))
	rb.Write([]byte(BeginMarker("x") + "\n"))
	rb.Write([]byte("fresh\n"))
	rb.Write([]byte(DoneMarker("x", 0) + "\n"))

	w := &MarkerWaiter{RingBuffer: rb, PollInterval: 5 * time.Millisecond, MaxScrollbackLines: 100}
	res, err := w.Wait(context.Background(), "x", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "fresh", res.Output)
}

func TestMarkerWaiter_ProgressCallback(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(0)
	var progress []string
	rb.Write([]byte(BeginMarker("x") + "\n"))
	rb.Write([]byte("line1\n"))

	w := &MarkerWaiter{RingBuffer: rb, PollInterval: 5 * time.Millisecond, MaxScrollbackLines: 100}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan MarkerResult, 1)
	go func() {
		res, _ := w.Wait(ctx, "x", func(line string) { progress = append(progress, line) })
		done <- res
	}()

	time.Sleep(20 * time.Millisecond)
	rb.Write([]byte("line2\n"))
	time.Sleep(20 * time.Millisecond)
	rb.Write([]byte(DoneMarker("x", 0) + "\n"))

	select {
	case res := <-done:
		require.Equal(t, 0, res.ExitCode)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for marker")
	}
	cancel()

	require.Contains(t, progress, "line1")
	require.Contains(t, progress, "line2")
}

func TestRingBuffer_HalvesOnOverflow(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(10)
	rb.Write([]byte("0123456789"))
	rb.Write([]byte("AB"))

	data, next := rb.ReadRange(0, 100)
	require.Equal(t, rb.Base(), next-int64(len(data)))
	require.NotContains(t, string(data), "0")
	require.Contains(t, string(data), "AB")
}

func TestRingBuffer_ReadRangeCursor(t *testing.T) {
	t.Parallel()

	rb := NewRingBuffer(0)
	rb.Write([]byte("hello"))
	rb.Write([]byte("world"))

	data, next := rb.ReadRange(0, 5)
	require.Equal(t, "hello", string(data))
	require.Equal(t, int64(5), next)

	data, next = rb.ReadRange(next, 100)
	require.Equal(t, "world", string(data))
	require.Equal(t, int64(10), next)
}
