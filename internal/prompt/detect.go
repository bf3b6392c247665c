// SPDX-License-Identifier: MPL-2.0

package prompt

import (
	"regexp"
	"strings"
)

// Kind classifies a detected prompt.
type Kind int

const (
	// KindNone means the line is not a prompt.
	KindNone Kind = iota
	// KindPassword covers password/passphrase prompts, including sudo's.
	KindPassword
	// KindConfirmation covers yes/no confirmation prompts.
	KindConfirmation
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindConfirmation:
		return "confirmation"
	default:
		return "none"
	}
}

// Detection is the result of Detect: the Kind and the original line text,
// passed through verbatim so subscribers can present it to a user or match
// on it for a secret name (e.g. sudo's "[sudo] password for USER:").
type Detection struct {
	Kind Kind
	Text string
}

var sudoPasswordPattern = regexp.MustCompile(`(?i)^\[sudo\] password for [^:]+:\s*$`)

// passwordSubstrings are matched case-insensitively as substrings of the
// trimmed line.
var passwordSubstrings = []string{
	"password:",
	"password for",
	"passphrase:",
	"enter passphrase",
	"sudo password",
}

// confirmationSubstrings are matched case-insensitively as substrings of
// the trimmed line.
var confirmationSubstrings = []string{
	"[y/n]",
	"(y/n)",
	"[yes/no]",
	"continue?",
	"are you sure?",
}

// Detect classifies a single output line. Empty (or whitespace-only) lines
// never match.
func Detect(line string) Detection {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Detection{Kind: KindNone}
	}

	if sudoPasswordPattern.MatchString(trimmed) {
		return Detection{Kind: KindPassword, Text: line}
	}

	lower := strings.ToLower(trimmed)
	for _, s := range passwordSubstrings {
		if strings.Contains(lower, s) {
			return Detection{Kind: KindPassword, Text: line}
		}
	}
	for _, s := range confirmationSubstrings {
		if strings.Contains(lower, s) {
			return Detection{Kind: KindConfirmation, Text: line}
		}
	}

	return Detection{Kind: KindNone}
}
