// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"fmt"
	"strings"

	"doppio-engine/internal/engineerr"
)

// Mode selects how an unresolved ${var} or ${secret:name} placeholder is
// treated.
type Mode int

const (
	// Checked raises invalid_input listing every unresolved placeholder.
	Checked Mode = iota
	// BestEffort leaves an unresolved placeholder untouched rather than
	// erroring. Exposed for forward compatibility; no operation field in
	// this engine opts into it today (see DESIGN.md).
	BestEffort
)

// Redacted marks a string produced by Interpolate whose secret
// placeholders were rendered as the literal "[REDACTED]" rather than the
// resolved value, safe to pass to a log line.
type Redacted string

// Interpolate expands every `${name}` and `${secret:name}` placeholder in
// template against vars and secrets. In Checked mode, any placeholder that
// fails to resolve (unknown variable, missing secret, or a secrets lookup
// error) aborts the whole call with invalid_input naming every unresolved
// placeholder; in BestEffort mode such placeholders are left verbatim.
func Interpolate(template string, vars map[string]string, secrets SecretsStore, mode Mode) (string, error) {
	out, missing, err := expand(template, vars, secrets, false)
	if err != nil {
		return "", err
	}
	if mode == Checked && len(missing) > 0 {
		return "", engineerr.InvalidInput("dispatch.Interpolate",
			fmt.Errorf("unresolved placeholders: %s", strings.Join(missing, ", ")))
	}
	return out, nil
}

// InterpolateForLog behaves like Interpolate but renders every
// `${secret:name}` placeholder as "[REDACTED]" instead of the resolved
// value, for safe inclusion in a LogStore entry or progress line.
func InterpolateForLog(template string, vars map[string]string, secrets SecretsStore, mode Mode) (Redacted, error) {
	out, missing, err := expand(template, vars, secrets, true)
	if err != nil {
		return "", err
	}
	if mode == Checked && len(missing) > 0 {
		return "", engineerr.InvalidInput("dispatch.InterpolateForLog",
			fmt.Errorf("unresolved placeholders: %s", strings.Join(missing, ", ")))
	}
	return Redacted(out), nil
}

const (
	placeholderOpen  = "${"
	placeholderClose = '}'
	secretPrefix     = "secret:"
	redactedValue    = "[REDACTED]"
)

// expand walks template once, resolving each ${...} span. It returns the
// resolved text, the list of placeholder spans (verbatim, including the
// ${...} delimiters) that could not be resolved, and any hard error from a
// SecretsStore lookup itself (distinct from "not found").
func expand(template string, vars map[string]string, secrets SecretsStore, redact bool) (string, []string, error) {
	var b strings.Builder
	var missing []string

	rest := template
	for {
		i := strings.Index(rest, placeholderOpen)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])

		closeIdx := strings.IndexByte(rest[i:], placeholderClose)
		if closeIdx < 0 {
			// Unterminated placeholder: treat the rest of the string as
			// literal text, matching a permissive template scanner.
			b.WriteString(rest[i:])
			break
		}
		span := rest[i : i+closeIdx+1] // "${...}"
		name := rest[i+len(placeholderOpen) : i+closeIdx]
		rest = rest[i+closeIdx+1:]

		if secretName, ok := strings.CutPrefix(name, secretPrefix); ok {
			if secrets == nil {
				missing = append(missing, span)
				b.WriteString(span)
				continue
			}
			value, ok, err := secrets.Get(secretName)
			if err != nil {
				return "", nil, err
			}
			if !ok {
				missing = append(missing, span)
				b.WriteString(span)
				continue
			}
			if redact {
				b.WriteString(redactedValue)
			} else {
				b.WriteString(value)
			}
			continue
		}

		if value, ok := vars[name]; ok {
			b.WriteString(value)
			continue
		}
		missing = append(missing, span)
		b.WriteString(span)
	}

	return b.String(), missing, nil
}
