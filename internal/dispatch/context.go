// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"time"

	"doppio-engine/internal/condition"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/prompt"
)

// TargetVarName is the execution variable a handler falls back to for a
// host id when the operation's own host field is empty.
const TargetVarName = "target"

// LogAppender is the narrow view onto internal/logstore.Store a handler
// uses to persist output lines.
type LogAppender interface {
	Append(executionID string, entry logstore.Entry) error
}

// EventPublisher is the narrow view onto internal/eventbus.Bus a handler
// uses to emit live progress.
type EventPublisher interface {
	Publish(event eventbus.Event)
}

// OperationContext carries everything a Handler needs beyond the
// Operation payload itself: the execution/step identity, a read-only
// snapshot of the execution's variable map, and the engine's shared
// collaborators. Handlers never mutate Vars directly — SetVar/GetValue
// communicate mutations back through Result.Vars, which the scheduler
// (the sole owner of the execution's variable map) merges in.
type OperationContext struct {
	ExecutionID string
	StepID      string
	Vars        map[string]string
	Mode        Mode

	Hosts       HostResolver
	Secrets     SecretsStore
	Storages    StorageProvider
	Transfer    TransferEngine
	Marketplace MarketplaceClient
	Logs        LogAppender
	Events      EventPublisher

	// Env backs condition.Condition.Evaluate for WaitCondition/Assert,
	// implemented by internal/scheduler.
	Env condition.Environment

	// Terminals backs RunCommands/TmuxNew/Send/Kill/Capture's tmux modes.
	Terminals TerminalManager

	// OnProgress is called with the latest best-effort progress line, if
	// any is available; it may be nil.
	OnProgress func(line string)
}

// effectiveHostID resolves the host-id fallback the common preamble
// describes: use explicit when non-empty, else the execution's `target`
// variable.
func (oc *OperationContext) effectiveHostID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return oc.Vars[TargetVarName]
}

// interp interpolates s against oc's variable map and secrets, in oc.Mode.
func (oc *OperationContext) interp(s string) (string, error) {
	return Interpolate(s, oc.Vars, oc.Secrets, oc.Mode)
}

// log appends entry to the execution's log and republishes it on the event
// bus, preserving log-then-event ordering within one operation.
func (oc *OperationContext) log(stream logstore.Stream, message string) {
	entry := logstore.Entry{Timestamp: time.Now(), Stream: stream, StepID: oc.StepID, Message: message}
	if oc.Logs != nil {
		_ = oc.Logs.Append(oc.ExecutionID, entry)
	}
	if oc.Events != nil {
		oc.Events.Publish(eventbus.Event{
			Topic: eventbus.TopicLogAppended,
			Payload: eventbus.LogAppendedPayload{
				Exec:  oc.ExecutionID,
				Entry: entry,
			},
		})
	}
}

// progress reports line as this step's latest progress, both to the
// caller-supplied OnProgress hook and as a best-effort progress log line.
// A line that looks like an interactive password or confirmation prompt is
// additionally flagged on the system stream: a tmux-backed step has no
// terminal attached by default, so an unanswered prompt otherwise reads as
// a silent hang rather than the waiting-on-input state it actually is.
func (oc *OperationContext) progress(line string) {
	if line == "" {
		return
	}
	if oc.OnProgress != nil {
		oc.OnProgress(line)
	}
	oc.log(logstore.StreamProgress, line)

	if d := prompt.Detect(line); d.Kind != prompt.KindNone {
		oc.log(logstore.StreamSystem, "interactive "+d.Kind.String()+" prompt detected: "+d.Text)
	}
}

// Result is a handler's outcome. Vars carries SetVar/GetValue mutations for
// the scheduler to merge into the execution's variable map; it is nil for
// every other operation kind.
type Result struct {
	ExitCode int
	Output   string
	Vars     map[string]string
}
