// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"strings"
	"testing"
)

const linearSkill = `
[skill]
name = "linear"
version = "1.0.0"

[[step]]
id = "a"
[step.run_commands]
host_id = "__local__"
commands = ["echo a"]

[[step]]
id = "b"
depends_on = ["a"]
[step.run_commands]
host_id = "__local__"
commands = ["echo b"]

[[step]]
id = "c"
depends_on = ["b"]
[step.run_commands]
host_id = "__local__"
commands = ["echo c"]
`

func TestParseBytes_LinearSkill(t *testing.T) {
	t.Parallel()

	s, err := ParseBytes([]byte(linearSkill))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if s.Name != "linear" || s.Version != "1.0.0" {
		t.Fatalf("unexpected skill meta: %+v", s)
	}
	if len(s.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(s.Steps))
	}
	for _, step := range s.Steps {
		if _, ok := step.Operation.(RunCommands); !ok {
			t.Errorf("step %q: expected RunCommands, got %T", step.ID, step.Operation)
		}
	}
}

func TestParseBytes_TopologicalOrder(t *testing.T) {
	t.Parallel()

	s, err := ParseBytes([]byte(linearSkill))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	report := Validate(s)
	if !report.Valid {
		t.Fatalf("expected valid skill, got errors: %v", report.Errors)
	}
	order, err := TopologicalOrder(s)
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, id := range want {
		if order[i] != id {
			t.Errorf("order[%d] = %q, want %q", i, order[i], id)
		}
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	t.Parallel()

	s := &Skill{
		Steps: []Step{
			{ID: "a", Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
			{ID: "a", Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
		},
	}
	report := Validate(s)
	if report.Valid {
		t.Fatal("expected invalid report for duplicate id")
	}
	if !containsSubstring(report.Errors, "duplicate step id") {
		t.Errorf("errors = %v, want duplicate id message", report.Errors)
	}
}

func TestValidate_UnknownDependency(t *testing.T) {
	t.Parallel()

	s := &Skill{
		Steps: []Step{
			{ID: "a", DependsOn: []string{"ghost"}, Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
		},
	}
	report := Validate(s)
	if report.Valid {
		t.Fatal("expected invalid report for unknown dependency")
	}
	if !containsSubstring(report.Errors, "unknown step") {
		t.Errorf("errors = %v, want unknown-step message", report.Errors)
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	t.Parallel()

	s := &Skill{
		Steps: []Step{
			{ID: "a", DependsOn: []string{"a"}, Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
		},
	}
	report := Validate(s)
	if report.Valid {
		t.Fatal("expected invalid report for self dependency")
	}
}

func TestValidate_CycleReportsPath(t *testing.T) {
	t.Parallel()

	s := &Skill{
		Steps: []Step{
			{ID: "a", DependsOn: []string{"b"}, Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
			{ID: "b", DependsOn: []string{"c"}, Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
			{ID: "c", DependsOn: []string{"a"}, Operation: Sleep{Seconds: 1}, Retry: DefaultRetryPolicy},
		},
	}
	report := Validate(s)
	if report.Valid {
		t.Fatal("expected invalid report for cyclic skill")
	}
	if !containsSubstring(report.Errors, "a -> b -> c -> a") {
		t.Errorf("errors = %v, want cycle path a -> b -> c -> a", report.Errors)
	}
}

func TestParseBytes_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	bad := `
[skill]
name = "x"
version = "1.0.0"

[[step]]
id = "a"
bogus_field = "oops"
[step.sleep]
seconds = 1
`
	_, err := ParseBytes([]byte(bad))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseBytes_RejectsMultipleOperations(t *testing.T) {
	t.Parallel()

	bad := `
[skill]
name = "x"
version = "1.0.0"

[[step]]
id = "a"
[step.sleep]
seconds = 1
[step.set_var]
name = "x"
value = "y"
`
	_, err := ParseBytes([]byte(bad))
	if err == nil {
		t.Fatal("expected error for multiple operation tables on one step")
	}
}

func TestParseBytes_RejectsBadIDShape(t *testing.T) {
	t.Parallel()

	bad := `
[skill]
name = "x"
version = "1.0.0"

[[step]]
id = "bad id with spaces"
[step.sleep]
seconds = 1
`
	_, err := ParseBytes([]byte(bad))
	if err == nil {
		t.Fatal("expected schema validation error for malformed step id")
	}
}

func TestParseBytes_WaitConditionBridgesToConditionPackage(t *testing.T) {
	t.Parallel()

	doc := `
[skill]
name = "x"
version = "1.0.0"

[[step]]
id = "a"
[step.wait_condition]
timeout_secs = 2
poll_interval_secs = 1
[step.wait_condition.condition.file_exists]
host_id = "__local__"
path = "/tmp/flag"
`
	s, err := ParseBytes([]byte(doc))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	op, ok := s.Steps[0].Operation.(WaitCondition)
	if !ok {
		t.Fatalf("expected WaitCondition operation, got %T", s.Steps[0].Operation)
	}
	if op.Condition.Kind() != "file_exists" {
		t.Errorf("condition kind = %q, want file_exists", op.Condition.Kind())
	}
}

func TestParseBytes_GroupExpandsAtLoadTime(t *testing.T) {
	t.Parallel()

	doc := `
[skill]
name = "grouped"
version = "1.0.0"

[[step]]
id = "setup"
[step.run_commands]
host_id = "__local__"
commands = ["echo setup"]

[[step]]
id = "b1"
depends_on = ["setup"]
[step.run_commands]
host_id = "__local__"
commands = ["echo b1"]

[[step]]
id = "b2"
depends_on = ["setup"]
[step.run_commands]
host_id = "__local__"
commands = ["echo b2"]

[[step]]
id = "build"
[step.group]
step_ids = ["b1", "b2"]

[[step]]
id = "deploy"
depends_on = ["build"]
[step.run_commands]
host_id = "__local__"
commands = ["echo deploy"]
`
	s, err := ParseBytes([]byte(doc))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	for _, step := range s.Steps {
		if step.ID == "build" {
			t.Fatal("group step survived load-time expansion")
		}
		if _, ok := step.Operation.(Group); ok {
			t.Fatalf("step %q: group operation reached the parsed skill", step.ID)
		}
	}

	var deploy *Step
	for i := range s.Steps {
		if s.Steps[i].ID == "deploy" {
			deploy = &s.Steps[i]
		}
	}
	if deploy == nil {
		t.Fatal("deploy step missing after expansion")
	}
	if !containsSubstring(deploy.DependsOn, "b1") || !containsSubstring(deploy.DependsOn, "b2") {
		t.Errorf("deploy.DependsOn = %v, want the group's members b1 and b2", deploy.DependsOn)
	}
	if containsSubstring(deploy.DependsOn, "build") {
		t.Errorf("deploy.DependsOn = %v still references the expanded group", deploy.DependsOn)
	}

	report := Validate(s)
	if !report.Valid {
		t.Fatalf("expanded skill failed validation: %v", report.Errors)
	}
}

func TestParseBytes_GroupRejectsUnknownMember(t *testing.T) {
	t.Parallel()

	doc := `
[skill]
name = "bad-group"
version = "1.0.0"

[[step]]
id = "g"
[step.group]
step_ids = ["nope"]
`
	if _, err := ParseBytes([]byte(doc)); err == nil {
		t.Fatal("expected an error for a group naming an unknown step")
	}
}

func containsSubstring(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}
