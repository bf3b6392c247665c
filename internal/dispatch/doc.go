// SPDX-License-Identifier: MPL-2.0

// Package dispatch is the OperationDispatcher: a map[OperationKind]Handler
// registry exactly mirroring internal/runtime.Registry's
// Register/Get/Execute shape, generalized from 3 runtime kinds to the 22
// skill.Operation variants. Each handler owns its own interpolation of the
// operation's string fields (the "common preamble" of resolving an
// effective host id and expanding ${var}/${secret:name} placeholders)
// before acting on them.
package dispatch
