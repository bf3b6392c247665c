// SPDX-License-Identifier: MPL-2.0

package eventbus

// Topic names the event kinds the scheduler and terminal subsystem
// publish, matching the wire names used in the JSON envelope.
type Topic string

const (
	TopicStepStarted  Topic = "skill:step_started"
	TopicStepProgress Topic = "skill:step_progress"
	TopicStepFinished Topic = "skill:step_finished"
	TopicLogAppended  Topic = "skill:log_appended"
	TopicFinished     Topic = "skill:finished"
	TopicTermData     Topic = "term:data"
	TopicTermExit     Topic = "term:exit"
)

// Event is the envelope published on the bus and forwarded verbatim to any
// websocket bridge. Payload is left as `any` (marshaled to JSON at the
// transport boundary) since each Topic carries a distinct shape.
type Event struct {
	Topic   Topic `json:"topic"`
	Payload any   `json:"payload"`
}

// StepStartedPayload is Payload for TopicStepStarted.
type StepStartedPayload struct {
	Exec string `json:"exec"`
	Step string `json:"step"`
}

// StepProgressPayload is Payload for TopicStepProgress.
type StepProgressPayload struct {
	Exec     string `json:"exec"`
	Step     string `json:"step"`
	Progress string `json:"progress,omitempty"`
}

// StepFinishedPayload is Payload for TopicStepFinished.
type StepFinishedPayload struct {
	Exec     string `json:"exec"`
	Step     string `json:"step"`
	Status   string `json:"status"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// LogAppendedPayload is Payload for TopicLogAppended.
type LogAppendedPayload struct {
	Exec  string `json:"exec"`
	Entry any    `json:"entry"`
}

// FinishedPayload is Payload for TopicFinished.
type FinishedPayload struct {
	Exec   string `json:"exec"`
	Status string `json:"status"`
}

// TermDataPayload is Payload for TopicTermData.
type TermDataPayload struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// TermExitPayload is Payload for TopicTermExit.
type TermExitPayload struct {
	ID string `json:"id"`
}
