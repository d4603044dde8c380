/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package steps

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSteps(t *testing.T) {
	raw := []byte(`{
		"init": {"outcome": "success"},
		"plan": {"outcome": "failure", "outputs": {"stdout": "oops", "exitcode": "1"}},
		"apply": {"conclusion": "skipped"}
	}`)

	got, err := ParseSteps(raw)
	if err != nil {
		t.Fatalf("ParseSteps() error = %v", err)
	}

	want := []NamedStep{
		{Name: "init", Step: Step{Outcome: "success"}},
		{Name: "plan", Step: Step{Outcome: "failure", Outputs: &Outputs{Stdout: "oops", ExitCode: "1"}}},
		{Name: "apply", Step: Step{Conclusion: "skipped"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSteps() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStepsPreservesOrder(t *testing.T) {
	raw := []byte(`{"z-first": {}, "a-second": {}, "m-third": {}}`)
	got, err := ParseSteps(raw)
	if err != nil {
		t.Fatalf("ParseSteps() error = %v", err)
	}
	wantOrder := []string{"z-first", "a-second", "m-third"}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Errorf("step[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestParseStepsRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"steps"`, `42`, `not json at all`} {
		if _, err := ParseSteps([]byte(raw)); err == nil {
			t.Errorf("ParseSteps(%q) error = nil, want error", raw)
		}
	}
}

func TestAnalyzeStatuses(t *testing.T) {
	named := []NamedStep{
		{Name: "a", Step: Step{Outcome: "success"}},
		{Name: "b", Step: Step{Outcome: "failure"}},
		{Name: "c", Step: Step{Outcome: "skipped"}},
		{Name: "d", Step: Step{Outcome: "cancelled"}},
		{Name: "e", Step: Step{Outcome: "neutral"}},
	}

	got := Analyze(named, "")

	if got.Success {
		t.Error("Success = true, want false")
	}
	if got.Total != 5 {
		t.Errorf("Total = %d, want 5", got.Total)
	}
	if len(got.Failures) != 1 || got.Failures[0].Name != "b" {
		t.Errorf("Failures = %+v, want only step b", got.Failures)
	}
	if got.Target != nil {
		t.Errorf("Target = %+v, want nil when no target requested", got.Target)
	}
}

func TestAnalyzeConclusionFallback(t *testing.T) {
	named := []NamedStep{
		{Name: "a", Step: Step{Conclusion: "failure"}},
		{Name: "b", Step: Step{}}, // no status at all: not a failure
	}
	got := Analyze(named, "")
	if len(got.Failures) != 1 || got.Failures[0].Status != "failure" {
		t.Errorf("Failures = %+v, want conclusion-driven failure for step a", got.Failures)
	}
}

func TestAnalyzeFailureOrder(t *testing.T) {
	named := []NamedStep{
		{Name: "later", Step: Step{Outcome: "failure"}},
		{Name: "earlier", Step: Step{Outcome: "timed_out"}},
	}
	got := Analyze(named, "")
	if got.Failures[0].Name != "later" || got.Failures[1].Name != "earlier" {
		t.Errorf("Failures = %+v, want context order preserved", got.Failures)
	}
}

func TestAnalyzeTarget(t *testing.T) {
	named := []NamedStep{
		{Name: "plan", Step: Step{Outcome: "success", Outputs: &Outputs{Stdout: "out"}}},
		{Name: "apply", Step: Step{Outcome: "failure"}},
	}

	got := Analyze(named, "plan")
	if got.Target == nil || !got.Target.Found {
		t.Fatalf("Target = %+v, want found", got.Target)
	}
	if got.Target.Status != "success" || got.Target.Outputs == nil {
		t.Errorf("Target = %+v, want captured status and outputs", got.Target)
	}
	// Target capture must not alter the overall verdict.
	if got.Success {
		t.Error("Success = true, want false (apply failed)")
	}
}

func TestAnalyzeTargetMissing(t *testing.T) {
	named := []NamedStep{
		{Name: "plan", Step: Step{Outcome: "success"}},
	}
	got := Analyze(named, "deploy")
	want := &TargetResult{Name: "deploy"}
	if diff := cmp.Diff(want, got.Target); diff != "" {
		t.Errorf("Target mismatch (-want +got):\n%s", diff)
	}
	if !got.Success {
		t.Error("Success = false, want true; a missing target is not a failure")
	}
}
