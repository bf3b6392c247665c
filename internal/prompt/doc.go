// SPDX-License-Identifier: MPL-2.0

// Package prompt classifies terminal output lines as credential or
// confirmation prompts. Detection is a pure function with no side effects;
// callers decide how to respond (secret lookup, user-facing event, a
// pre-canned answer).
package prompt
