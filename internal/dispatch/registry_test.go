// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"testing"

	"doppio-engine/internal/condition"
	"doppio-engine/internal/hostresolve"
	"doppio-engine/internal/skill"
)

func TestRegistry_DispatchUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), &OperationContext{}, unknownOp{})
	if err == nil {
		t.Fatal("expected an error dispatching an unregistered operation kind")
	}
}

type unknownOp struct{}

func (unknownOp) Kind() string { return "does_not_exist" }

func TestHandleSetVar(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{
		Vars: map[string]string{"prefix": "run-"},
		Mode: Checked,
	}
	res, err := r.Dispatch(context.Background(), oc, skill.SetVar{Name: "job_id", Value: "${prefix}42"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Vars["job_id"] != "run-42" {
		t.Errorf("Vars[job_id] = %q, want run-42", res.Vars["job_id"])
	}
}

func TestHandleSetVar_MissingName(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{Mode: Checked}
	_, err := r.Dispatch(context.Background(), oc, skill.SetVar{Value: "x"})
	if err == nil {
		t.Fatal("expected an error for a SetVar with no name")
	}
}

func TestHandleSetVar_UnresolvedPlaceholderChecked(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{Vars: map[string]string{}, Mode: Checked}
	_, err := r.Dispatch(context.Background(), oc, skill.SetVar{Name: "x", Value: "${missing}"})
	if err == nil {
		t.Fatal("expected an error for an unresolved placeholder in Checked mode")
	}
}

func TestHandleGetValue_LocalShell(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{
		Vars: map[string]string{},
		Mode: Checked,
	}
	op := skill.GetValue{HostID: hostresolve.LocalHostID, Command: "echo hello", VarName: "greeting"}
	res, err := r.Dispatch(context.Background(), oc, op)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Vars["greeting"] != "hello" {
		t.Errorf("Vars[greeting] = %q, want hello", res.Vars["greeting"])
	}
}

func TestHandleGetValue_NonZeroExit(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{Vars: map[string]string{}, Mode: Checked}
	op := skill.GetValue{HostID: hostresolve.LocalHostID, Command: "exit 3", VarName: "x"}
	_, err := r.Dispatch(context.Background(), oc, op)
	if err == nil {
		t.Fatal("expected an error for a nonzero-exit command")
	}
}

func TestHandleSleep(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{Mode: Checked}
	res, err := r.Dispatch(context.Background(), oc, skill.Sleep{Seconds: 0.01})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestHandleSleep_CancelledEarly(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	oc := &OperationContext{Mode: Checked}
	_, err := r.Dispatch(ctx, oc, skill.Sleep{Seconds: 10})
	if err == nil {
		t.Fatal("expected an error when the context is already cancelled")
	}
}

func TestHandleAssert_PassAndFail(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{Vars: map[string]string{}, Mode: Checked}

	if _, err := r.Dispatch(context.Background(), oc, skill.Assert{Condition: condition.Always{}}); err != nil {
		t.Errorf("Always condition should not fail assert: %v", err)
	}

	_, err := r.Dispatch(context.Background(), oc, skill.Assert{Condition: condition.Never{}, Message: "must not happen"})
	if err == nil {
		t.Fatal("expected Never condition to fail assert")
	}
}

func TestHandleAssert_VarEquals(t *testing.T) {
	r := NewRegistry()
	oc := &OperationContext{
		Vars: map[string]string{"status": "ready"},
		Mode: Checked,
		Env:  nil,
	}
	oc.Env = testEnv{vars: oc.Vars}

	_, err := r.Dispatch(context.Background(), oc, skill.Assert{Condition: condition.VarEquals{Name: "status", Value: "ready"}})
	if err != nil {
		t.Errorf("expected VarEquals(status, ready) to hold: %v", err)
	}

	_, err = r.Dispatch(context.Background(), oc, skill.Assert{Condition: condition.VarEquals{Name: "status", Value: "done"}})
	if err == nil {
		t.Fatal("expected VarEquals(status, done) to fail")
	}
}

// testEnv is a minimal condition.Environment backed by a static var map,
// for conditions that only read Var.
type testEnv struct{ vars map[string]string }

func (e testEnv) RunCheck(ctx context.Context, hostID, script string) (int, string, error) {
	return -1, "", nil
}
func (e testEnv) Var(name string) (string, bool) { v, ok := e.vars[name]; return v, ok }
func (e testEnv) HostOnline(hostID string) bool { return false }
func (e testEnv) GpuCount(hostID string) int { return 0 }
func (e testEnv) GdriveMounted(storageID string) bool { return false }
func (e testEnv) TmuxAlive(hostID, session string) bool { return false }
