// SPDX-License-Identifier: MPL-2.0

package terminal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BeginMarker returns the begin-marker sentinel line for stepID, printed on
// its own line before a step's commands are sent to a pane.
func BeginMarker(stepID string) string {
	return fmt.Sprintf("___DOPPIO_STEP_BEGIN_%s___", stepID)
}

// DoneMarker returns the done-marker sentinel line for stepID and
// exitCode, emitted by the shell as `echo "___DOPPIO_STEP_DONE_<id>_$?___"`.
func DoneMarker(stepID string, exitCode int) string {
	return fmt.Sprintf("___DOPPIO_STEP_DONE_%s_%d___", stepID, exitCode)
}

const doneMarkerPrefix = "___DOPPIO_STEP_DONE_"
const doneMarkerSuffix = "___"

// parseDoneLine reports whether trimmedLine is a done marker for stepID,
// and if so, the exit code it carries (0 when the marker omits one).
func parseDoneLine(trimmedLine, stepID string) (exitCode int, ok bool) {
	prefix := doneMarkerPrefix + stepID
	if !strings.HasPrefix(trimmedLine, prefix) || !strings.HasSuffix(trimmedLine, doneMarkerSuffix) {
		return 0, false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(trimmedLine, prefix), doneMarkerSuffix)
	if middle == "" {
		return 0, true
	}
	if !strings.HasPrefix(middle, "_") {
		return 0, false
	}
	digits := middle[1:]
	code, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return code, true
}

// MarkerResult is the outcome of successfully locating a step's begin/done
// marker pair in a terminal's output stream.
type MarkerResult struct {
	StepID   string
	ExitCode int
	Output   string
}

// MarkerWaiter scans a RingBuffer for one step's marker pair at a time,
// re-splitting the buffer's current content into lines on every poll
// tick. It always searches for the LATEST begin-marker occurrence (scanning
// backward) so a reused session whose scrollback still holds an older
// step's markers never misattributes output.
type MarkerWaiter struct {
	RingBuffer         *RingBuffer
	PollInterval       time.Duration
	MaxScrollbackLines int
}

// NewMarkerWaiter returns a MarkerWaiter with spec defaults (100ms poll,
// 5000-line scrollback bound) applied for any zero field.
func NewMarkerWaiter(rb *RingBuffer) *MarkerWaiter {
	return &MarkerWaiter{RingBuffer: rb, PollInterval: 100 * time.Millisecond, MaxScrollbackLines: 5000}
}

// Wait blocks until stepID's done marker appears, ctx is cancelled, or the
// optional deadline (zero means none) elapses. onProgress is called with
// the last non-empty captured line each time it changes; it may be nil.
func (w *MarkerWaiter) Wait(ctx context.Context, stepID string, onProgress func(line string)) (MarkerResult, error) {
	pollInterval := w.PollInterval
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	maxLines := w.MaxScrollbackLines
	if maxLines <= 0 {
		maxLines = 5000
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	beginLine := BeginMarker(stepID)
	var lastProgress string

	scan := func() (MarkerResult, bool) {
		content := w.RingBuffer.Snapshot()
		lines := strings.Split(string(content), "\n")
		if len(lines) > maxLines {
			lines = lines[len(lines)-maxLines:]
		}

		beginIdx := -1
		for i := len(lines) - 1; i >= 0; i-- {
			if strings.TrimSpace(lines[i]) == beginLine {
				beginIdx = i
				break
			}
		}
		if beginIdx == -1 {
			return MarkerResult{}, false
		}

		for j := beginIdx + 1; j < len(lines); j++ {
			trimmed := strings.TrimSpace(lines[j])
			if exitCode, ok := parseDoneLine(trimmed, stepID); ok {
				output := strings.Join(lines[beginIdx+1:j], "\n")
				return MarkerResult{StepID: stepID, ExitCode: exitCode, Output: output}, true
			}
		}

		if onProgress != nil {
			for j := len(lines) - 1; j > beginIdx; j-- {
				trimmed := strings.TrimSpace(lines[j])
				if trimmed != "" {
					if trimmed != lastProgress {
						lastProgress = trimmed
						onProgress(trimmed)
					}
					break
				}
			}
		}
		return MarkerResult{}, false
	}

	if res, ok := scan(); ok {
		return res, nil
	}
	for {
		select {
		case <-ctx.Done():
			return MarkerResult{}, ctx.Err()
		case <-ticker.C:
			if res, ok := scan(); ok {
				return res, nil
			}
		}
	}
}
