// SPDX-License-Identifier: MPL-2.0

package scheduler

import (
	"context"
	"testing"
	"time"

	"doppio-engine/internal/condition"
	"doppio-engine/internal/dispatch"
	"doppio-engine/internal/eventbus"
	"doppio-engine/internal/logstore"
	"doppio-engine/internal/skill"
)

func newTestScheduler(t *testing.T, maxParallel int) *Scheduler {
	t.Helper()
	return New(
		maxParallel,
		nil, // hosts
		nil, // hostStatus
		nil, // secrets
		nil, // storages
		nil, // transfer
		nil, // marketplace
		nil, // terminals
		logstore.New(t.TempDir()),
		eventbus.New(),
		dispatch.NewRegistry(),
	)
}

func mkStep(id string, deps []string, op skill.Operation, onFailure skill.OnFailurePolicy) skill.Step {
	return skill.Step{
		ID:        id,
		DependsOn: deps,
		Operation: op,
		Retry:     skill.DefaultRetryPolicy,
		OnFailure: onFailure,
	}
}

// TestRun_LinearDAG covers spec S1: three dependent steps run in order and
// the execution succeeds once all three have.
func TestRun_LinearDAG(t *testing.T) {
	sk := &skill.Skill{
		Name:    "linear",
		Version: "1",
		Steps: []skill.Step{
			mkStep("a", nil, skill.SetVar{Name: "a", Value: "1"}, skill.OnFailureAbort),
			mkStep("b", []string{"a"}, skill.SetVar{Name: "b", Value: "${a}2"}, skill.OnFailureAbort),
			mkStep("c", []string{"b"}, skill.SetVar{Name: "c", Value: "${b}3"}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Run(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exec.Status != ExecSucceeded {
		t.Fatalf("status = %s, want succeeded", exec.Status)
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := exec.StepStatusOf(id); got != StepSucceeded {
			t.Errorf("step %s status = %s, want succeeded", id, got)
		}
	}
	if v, _ := exec.Var("c"); v != "123" {
		t.Errorf("var c = %q, want 123", v)
	}
}

// TestRun_DiamondParallel covers spec S2: b and c both depend on a and have
// no edge between themselves, so they may run concurrently; d depends on
// both and must see both of their mutations merged.
func TestRun_DiamondParallel(t *testing.T) {
	sk := &skill.Skill{
		Name:    "diamond",
		Version: "1",
		Steps: []skill.Step{
			mkStep("a", nil, skill.SetVar{Name: "a", Value: "go"}, skill.OnFailureAbort),
			mkStep("b", []string{"a"}, skill.SetVar{Name: "b", Value: "left"}, skill.OnFailureAbort),
			mkStep("c", []string{"a"}, skill.SetVar{Name: "c", Value: "right"}, skill.OnFailureAbort),
			mkStep("d", []string{"b", "c"}, skill.SetVar{Name: "d", Value: "${b}-${c}"}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Run(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exec.Status != ExecSucceeded {
		t.Fatalf("status = %s, want succeeded", exec.Status)
	}
	if v, _ := exec.Var("d"); v != "left-right" {
		t.Errorf("var d = %q, want left-right", v)
	}
}

// TestRun_OnFailureAbort asserts that a failing step with on_failure=abort
// cancels the execution and blocks its dependents rather than running them.
func TestRun_OnFailureAbort(t *testing.T) {
	sk := &skill.Skill{
		Name:    "abort",
		Version: "1",
		Steps: []skill.Step{
			mkStep("fails", nil, skill.Assert{Condition: condition.Never{}}, skill.OnFailureAbort),
			mkStep("never_runs", []string{"fails"}, skill.SetVar{Name: "x", Value: "1"}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Run(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exec.Status != ExecFailed {
		t.Fatalf("status = %s, want failed", exec.Status)
	}
	if got := exec.StepStatusOf("fails"); got != StepFailed {
		t.Errorf("step fails status = %s, want failed", got)
	}
	if got := exec.StepStatusOf("never_runs"); got != StepCancelled {
		t.Errorf("step never_runs status = %s, want cancelled", got)
	}
}

// TestRun_OnFailureContinue asserts a failed step with on_failure=continue
// lets independent-of-it dependents still be marked skipped, without
// aborting the whole execution.
func TestRun_OnFailureSkipDependents(t *testing.T) {
	sk := &skill.Skill{
		Name:    "skip-dependents",
		Version: "1",
		Steps: []skill.Step{
			mkStep("fails", nil, skill.Assert{Condition: condition.Never{}}, skill.OnFailureSkipDependents),
			mkStep("sibling", nil, skill.SetVar{Name: "y", Value: "ran"}, skill.OnFailureAbort),
			mkStep("dependent", []string{"fails"}, skill.SetVar{Name: "z", Value: "1"}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Run(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exec.Status != ExecFailed {
		t.Fatalf("status = %s, want failed", exec.Status)
	}
	if got := exec.StepStatusOf("dependent"); got != StepCancelled {
		t.Errorf("step dependent status = %s, want cancelled", got)
	}
	if got := exec.StepStatusOf("sibling"); got != StepSucceeded {
		t.Errorf("step sibling status = %s, want succeeded (independent of the failure)", got)
	}
}

// TestSubmit_ReturnsBeforeCompletion exercises the Submit/Wait split: the
// Execution's ID must be usable (for a pidfile, a Cancel call) immediately,
// well before the graph finishes running.
func TestSubmit_ReturnsBeforeCompletion(t *testing.T) {
	sk := &skill.Skill{
		Name:    "slow",
		Version: "1",
		Steps: []skill.Step{
			mkStep("wait", nil, skill.Sleep{Seconds: 0.2}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Submit(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if exec.ID == "" {
		t.Fatal("Submit returned an execution with no ID")
	}
	if got, ok := s.Get(exec.ID); !ok || got != exec {
		t.Fatal("Submit did not register the execution for Get/Cancel lookup")
	}

	exec.Wait()
	if exec.Status != ExecSucceeded {
		t.Fatalf("status after Wait = %s, want succeeded", exec.Status)
	}
}

// TestCancel stops an in-flight execution before its sleep step completes.
func TestCancel(t *testing.T) {
	sk := &skill.Skill{
		Name:    "cancelme",
		Version: "1",
		Steps: []skill.Step{
			mkStep("wait", nil, skill.Sleep{Seconds: 10}, skill.OnFailureAbort),
		},
	}

	s := newTestScheduler(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exec, err := s.Submit(ctx, sk, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	s.Cancel(exec.ID)
	exec.Wait()

	if exec.Status != ExecCancelled {
		t.Fatalf("status = %s, want cancelled", exec.Status)
	}
}
