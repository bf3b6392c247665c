// SPDX-License-Identifier: MPL-2.0

package condition

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"doppio-engine/internal/engineerr"
)

// Condition is the tagged-union contract every predicate variant
// implements, following the corpus's "interface + kind discriminant" shape
// for dynamic tagged unions (see internal/dispatch for the same pattern
// applied to operations).
type Condition interface {
	// Kind returns the discriminant used in skill documents and log
	// messages (e.g. "file_exists").
	Kind() string
	// Evaluate reports whether the condition currently holds.
	Evaluate(ctx context.Context, env Environment) (bool, error)
}

type (
	// FileExists checks that Path exists on HostID via `test -e`.
	FileExists struct {
		HostID string
		Path   string
	}

	// FileContains checks that Path exists on HostID and its content
	// contains Substring.
	FileContains struct {
		HostID    string
		Path      string
		Substring string
	}

	// CommandSucceeds checks the exit code of a one-shot command on
	// HostID.
	CommandSucceeds struct {
		HostID  string
		Command string
	}

	// OutputMatches runs Command on HostID and matches its stdout against
	// Pattern.
	OutputMatches struct {
		HostID  string
		Command string
		Pattern string
	}

	// VarEquals compares an execution variable's value for equality.
	VarEquals struct {
		Name  string
		Value string
	}

	// VarMatches matches an execution variable's value against Pattern.
	VarMatches struct {
		Name    string
		Pattern string
	}

	// HostOnline checks the host table's cached reachability flag.
	HostOnline struct {
		HostID string
	}

	// TmuxAlive checks that a named tmux session is alive on HostID.
	TmuxAlive struct {
		HostID  string
		Session string
	}

	// GpuAvailable checks that HostID's recorded GPU count is at least
	// MinCount.
	GpuAvailable struct {
		HostID   string
		MinCount int
	}

	// GdriveMounted checks a storage's Google Drive mount status.
	GdriveMounted struct {
		StorageID string
	}

	// Not negates Inner.
	Not struct{ Inner Condition }

	// And evaluates All and short-circuits on the first false.
	And struct{ All []Condition }

	// Or evaluates Any and short-circuits on the first true.
	Or struct{ Any []Condition }

	// Always is a condition that is always true.
	Always struct{}

	// Never is a condition that is always false.
	Never struct{}
)

func (FileExists) Kind() string      { return "file_exists" }
func (FileContains) Kind() string    { return "file_contains" }
func (CommandSucceeds) Kind() string { return "command_succeeds" }
func (OutputMatches) Kind() string   { return "output_matches" }
func (VarEquals) Kind() string       { return "var_equals" }
func (VarMatches) Kind() string      { return "var_matches" }
func (HostOnline) Kind() string      { return "host_online" }
func (TmuxAlive) Kind() string       { return "tmux_alive" }
func (GpuAvailable) Kind() string    { return "gpu_available" }
func (GdriveMounted) Kind() string   { return "gdrive_mounted" }
func (Not) Kind() string             { return "not" }
func (And) Kind() string             { return "and" }
func (Or) Kind() string              { return "or" }
func (Always) Kind() string          { return "always" }
func (Never) Kind() string           { return "never" }

func (c FileExists) Evaluate(ctx context.Context, env Environment) (bool, error) {
	_, stdout, err := env.RunCheck(ctx, c.HostID,
		fmt.Sprintf("test -e %s && echo yes || echo no", shQuote(c.Path)))
	if err != nil {
		return false, engineerr.Command("condition.FileExists", err)
	}
	return strings.TrimSpace(stdout) == "yes", nil
}

func (c FileContains) Evaluate(ctx context.Context, env Environment) (bool, error) {
	script := fmt.Sprintf("test -f %s && grep -qF -- %s %s && echo yes || echo no",
		shQuote(c.Path), shQuote(c.Substring), shQuote(c.Path))
	_, stdout, err := env.RunCheck(ctx, c.HostID, script)
	if err != nil {
		return false, engineerr.Command("condition.FileContains", err)
	}
	return strings.TrimSpace(stdout) == "yes", nil
}

func (c CommandSucceeds) Evaluate(ctx context.Context, env Environment) (bool, error) {
	exitCode, _, err := env.RunCheck(ctx, c.HostID, c.Command)
	if err != nil {
		return false, engineerr.Command("condition.CommandSucceeds", err)
	}
	return exitCode == 0, nil
}

func (c OutputMatches) Evaluate(ctx context.Context, env Environment) (bool, error) {
	_, stdout, err := env.RunCheck(ctx, c.HostID, c.Command)
	if err != nil {
		return false, engineerr.Command("condition.OutputMatches", err)
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return false, engineerr.InvalidInput("condition.OutputMatches", fmt.Errorf("compiling pattern %q: %w", c.Pattern, err))
	}
	return re.MatchString(stdout), nil
}

func (c VarEquals) Evaluate(_ context.Context, env Environment) (bool, error) {
	value, ok := env.Var(c.Name)
	if !ok {
		return false, nil
	}
	return value == c.Value, nil
}

func (c VarMatches) Evaluate(_ context.Context, env Environment) (bool, error) {
	value, ok := env.Var(c.Name)
	if !ok {
		return false, nil
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return false, engineerr.InvalidInput("condition.VarMatches", fmt.Errorf("compiling pattern %q: %w", c.Pattern, err))
	}
	return re.MatchString(value), nil
}

func (c HostOnline) Evaluate(_ context.Context, env Environment) (bool, error) {
	return env.HostOnline(c.HostID), nil
}

func (c TmuxAlive) Evaluate(_ context.Context, env Environment) (bool, error) {
	return env.TmuxAlive(c.HostID, c.Session), nil
}

func (c GpuAvailable) Evaluate(_ context.Context, env Environment) (bool, error) {
	return env.GpuCount(c.HostID) >= c.MinCount, nil
}

func (c GdriveMounted) Evaluate(_ context.Context, env Environment) (bool, error) {
	return env.GdriveMounted(c.StorageID), nil
}

func (c Not) Evaluate(ctx context.Context, env Environment) (bool, error) {
	ok, err := c.Inner.Evaluate(ctx, env)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Evaluate short-circuits on the first false sub-condition.
func (c And) Evaluate(ctx context.Context, env Environment) (bool, error) {
	for _, sub := range c.All {
		ok, err := sub.Evaluate(ctx, env)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate short-circuits on the first true sub-condition.
func (c Or) Evaluate(ctx context.Context, env Environment) (bool, error) {
	for _, sub := range c.Any {
		ok, err := sub.Evaluate(ctx, env)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (Always) Evaluate(context.Context, Environment) (bool, error) { return true, nil }
func (Never) Evaluate(context.Context, Environment) (bool, error) { return false, nil }

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
