/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package steps evaluates the serialized steps context of a GitHub Actions
// job: which steps failed, and optionally what a single target step did.
package steps

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Step is one entry of the steps context. Older runners populate outcome,
// some tooling only fills in conclusion; either works.
type Step struct {
	Outcome    string   `json:"outcome"`
	Conclusion string   `json:"conclusion"`
	Outputs    *Outputs `json:"outputs"`
}

// Outputs holds the captured output a step chose to expose. The exit code
// arrives as a string because step outputs are untyped.
type Outputs struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode string `json:"exitcode"`
}

// Status returns the step's effective status: outcome when set, otherwise
// conclusion, otherwise empty.
func (s Step) Status() string {
	if s.Outcome != "" {
		return s.Outcome
	}
	return s.Conclusion
}

// NamedStep pairs a step with its key in the steps context, preserving the
// document order of the original JSON object.
type NamedStep struct {
	Name string
	Step Step
}

// ParseSteps decodes the raw steps context. The payload must be a JSON
// object keyed by step name; anything else is an error rather than an empty
// report. Key order of the document is preserved.
func ParseSteps(raw []byte) ([]NamedStep, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("steps payload is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("steps payload is not a JSON object")
	}
	var out []NamedStep
	var perr error
	doc.ForEach(func(key, value gjson.Result) bool {
		var s Step
		if err := json.Unmarshal([]byte(value.Raw), &s); err != nil {
			perr = fmt.Errorf("decoding step %q: %w", key.String(), err)
			return false
		}
		out = append(out, NamedStep{Name: key.String(), Step: s})
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// exemptStatuses are the outcomes that do not count as failures. The
// cancelled and neutral exemptions are a deliberate policy: those outcomes
// are generally outside the workflow author's control.
var exemptStatuses = map[string]bool{
	"success":   true,
	"skipped":   true,
	"cancelled": true,
	"neutral":   true,
}

// IsFailure reports whether a status string counts as a failed step.
func IsFailure(status string) bool {
	return status != "" && !exemptStatuses[status]
}

// StepResult is the analyzer's view of a single failing step.
type StepResult struct {
	Name    string
	Status  string
	Outputs *Outputs
}

// TargetResult reports the lookup of a requested target step. Found is
// false when no step in the context carried the requested name.
type TargetResult struct {
	Name    string
	Found   bool
	Status  string
	Outputs *Outputs
}

// Analysis is the verdict over a whole steps context.
type Analysis struct {
	// Success is true iff no step failed.
	Success bool
	// Failures lists failing steps in the order they appear in the context.
	Failures []StepResult
	// Total is the number of steps examined.
	Total int
	// Target is set only when a target step was requested.
	Target *TargetResult
}

// Analyze reduces the steps to a pass/fail verdict. When target is
// non-empty its step record is captured regardless of outcome; a missing
// target yields Found=false and does not affect the overall verdict.
func Analyze(named []NamedStep, target string) Analysis {
	a := Analysis{Total: len(named)}
	if target != "" {
		a.Target = &TargetResult{Name: target}
	}
	for _, ns := range named {
		status := ns.Step.Status()
		if IsFailure(status) {
			a.Failures = append(a.Failures, StepResult{
				Name:    ns.Name,
				Status:  status,
				Outputs: ns.Step.Outputs,
			})
		}
		if a.Target != nil && ns.Name == target {
			a.Target.Found = true
			a.Target.Status = status
			a.Target.Outputs = ns.Step.Outputs
		}
	}
	a.Success = len(a.Failures) == 0
	return a
}
