// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"fmt"
	"regexp"

	"doppio-engine/internal/dag"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Report is the result of validating a Skill's step graph: structural
// errors (duplicate ids, unknown dependencies, cycles, bad retry/id
// shape) and non-fatal warnings.
type Report struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks skill-level invariants: unique ids, id shape, no
// self-dependency, all referenced dependency ids exist, and the
// dependency graph is acyclic. It does not re-run the CUE schema pass;
// that already happened during Parse.
func Validate(s *Skill) Report {
	var r Report

	seen := make(map[string]bool, len(s.Steps))
	for _, step := range s.Steps {
		if !idPattern.MatchString(step.ID) {
			r.Errors = append(r.Errors, fmt.Sprintf("step %q: id must match [A-Za-z0-9_-]+", step.ID))
			continue
		}
		if seen[step.ID] {
			r.Errors = append(r.Errors, fmt.Sprintf("duplicate step id %q", step.ID))
			continue
		}
		seen[step.ID] = true
	}

	for _, step := range s.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.ID {
				r.Errors = append(r.Errors, fmt.Sprintf("step %q depends on itself", step.ID))
				continue
			}
			if !seen[dep] {
				r.Errors = append(r.Errors, fmt.Sprintf("step %q depends on unknown step %q", step.ID, dep))
			}
		}
		if step.Retry.MaxAttempts < 1 {
			r.Errors = append(r.Errors, fmt.Sprintf("step %q: retry.max_attempts must be >= 1", step.ID))
		}
	}

	if len(r.Errors) == 0 {
		if cyclePath, ok := findCycle(s.Steps); ok {
			r.Errors = append(r.Errors, fmt.Sprintf("dependency cycle: %s", joinArrows(cyclePath)))
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func joinArrows(ids []string) string {
	out := ids[0]
	for _, id := range ids[1:] {
		out += " -> " + id
	}
	return out
}

// findCycle runs a DFS with an explicit recursion stack over the
// depends_on edges, visiting steps in declaration order for
// deterministic diagnostics. It returns the first cycle found as the
// path of step ids from the cycle's entry point back to itself.
func findCycle(steps []Step) ([]string, bool) {
	deps := make(map[string][]string, len(steps))
	order := make([]string, 0, len(steps))
	for _, s := range steps {
		deps[s.ID] = s.DependsOn
		order = append(order, s.ID)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(steps))
	var stack []string

	var visit func(id string) ([]string, bool)
	visit = func(id string) ([]string, bool) {
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range deps[id] {
			switch state[dep] {
			case unvisited:
				if path, found := visit(dep); found {
					return path, true
				}
			case visiting:
				// Found the back-edge; extract the cycle from the stack.
				cycleStart := 0
				for i, s := range stack {
					if s == dep {
						cycleStart = i
						break
					}
				}
				path := append([]string{}, stack[cycleStart:]...)
				path = append(path, dep)
				return path, true
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil, false
	}

	for _, id := range order {
		if state[id] == unvisited {
			if path, found := visit(id); found {
				return path, true
			}
		}
	}
	return nil, false
}

// TopologicalOrder returns step ids in dependency order (Kahn's
// algorithm, insertion order as tie-breaker). Callers should run
// Validate first; TopologicalOrder assumes an acyclic graph and returns
// a dag.CycleError otherwise.
func TopologicalOrder(s *Skill) ([]string, error) {
	g := dag.New()
	for _, step := range s.Steps {
		g.AddNode(step.ID)
	}
	for _, step := range s.Steps {
		for _, dep := range step.DependsOn {
			g.AddEdge(dep, step.ID)
		}
	}
	return g.TopologicalSort()
}
