// SPDX-License-Identifier: MPL-2.0

// Package eventbus is an in-process publish/subscribe fan-out for the
// engine's progress events (skill:step_started, skill:step_progress,
// skill:step_finished, skill:log_appended, skill:finished, term:data,
// term:exit). Subscribers reference executions weakly, by id, never by
// pointer. An optional websocket bridge (wsbridge.go) streams the same
// envelopes to a connected UI.
package eventbus
