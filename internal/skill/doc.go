// SPDX-License-Identifier: MPL-2.0

// Package skill defines the Skill/Step/Operation/Condition data model,
// parses skill documents from TOML, and validates and topologically
// orders the resulting step graph. Parsing is two-phase: pelletier/go-toml/v2
// decodes the document into typed Go values, then a small cuelang.org/go
// schema unifies against the decoded value to enforce cross-field
// constraints (id patterns, enum membership, numeric ranges) that are
// awkward to express as Go struct tags alone.
package skill
