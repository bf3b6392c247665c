// SPDX-License-Identifier: MPL-2.0

// Package condition evaluates the predicates a Step's `when` field and
// WaitCondition operation reference: file existence, command success,
// output/variable regex matches, host/GPU/mount status, and boolean
// composites (And/Or/Not) over them. Composites short-circuit.
package condition
