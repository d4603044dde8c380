/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tflog

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// detectionSampleLines bounds how many lines IsStructuredLog inspects.
const detectionSampleLines = 3

// IsStructuredLog reports whether text looks like Terraform's line-delimited
// JSON UI output. At most the first three non-blank lines are sampled; a
// single line that parses as a JSON object carrying both "type" and
// "@message" is enough. Permissive on purpose so that slightly mangled
// streams still get the structured rendering.
func IsStructuredLog(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	sampled := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sampled >= detectionSampleLines {
			break
		}
		sampled++
		if !gjson.Valid(line) {
			continue
		}
		v := gjson.Parse(line)
		if !v.IsObject() {
			continue
		}
		if v.Get("type").Exists() && v.Get("@message").Exists() {
			return true
		}
	}
	return false
}

// Result is the classified view of one log stream. A Result is built once
// per Parse call and is read-only afterwards.
type Result struct {
	// Messages holds every recognized record in parse order, including
	// kinds that land in no category below.
	Messages []Message

	Errors          []*Diagnostic
	Warnings        []*Diagnostic
	PlannedChanges  []*Hook
	Drift           []*Hook
	AppliesComplete []*Hook

	// ChangeSummary is the last change_summary record seen, if any.
	ChangeSummary *ChangeSummary

	// HasErrors is set when at least one error diagnostic was parsed.
	HasErrors bool
}

// Parse decodes every non-blank line of text and classifies the records by
// type. Lines that do not decode, or decode to something without a type and
// message, are dropped. Parse never fails: garbage in yields an empty
// Result.
func Parse(text string) *Result {
	res := &Result{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var common Common
		if err := json.Unmarshal([]byte(line), &common); err != nil {
			continue
		}
		if common.Type == "" || common.Message == "" {
			continue
		}
		res.classify(line, common)
	}
	return res
}

func (r *Result) classify(line string, common Common) {
	switch common.Type {
	case MessageDiagnostic:
		var m DiagnosticMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)
		if m.Diagnostic == nil {
			return
		}
		switch m.Diagnostic.Severity {
		case "error":
			r.Errors = append(r.Errors, m.Diagnostic)
			r.HasErrors = true
		case "warning":
			r.Warnings = append(r.Warnings, m.Diagnostic)
		}

	case MessagePlannedChange:
		var m PlannedChangeMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)
		if m.Change != nil {
			r.PlannedChanges = append(r.PlannedChanges, m.Change)
		}

	case MessageResourceDrift:
		var m ResourceDriftMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)
		if m.Change != nil {
			r.Drift = append(r.Drift, m.Change)
		}

	case MessageChangeSummary:
		var m ChangeSummaryMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)
		if m.Changes != nil {
			// Last one wins when the stream holds more than one.
			r.ChangeSummary = m.Changes
		}

	case MessageApplyStart, MessageApplyProgress, MessageApplyComplete, MessageApplyErrored,
		MessageProvisionStart, MessageProvisionProgress, MessageProvisionComplete, MessageProvisionErrored,
		MessageRefreshStart, MessageRefreshComplete:
		var m HookMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)
		if common.Type == MessageApplyComplete && m.Hook != nil {
			r.AppliesComplete = append(r.AppliesComplete, m.Hook)
		}

	case MessageVersion:
		var m VersionMsg
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return
		}
		r.Messages = append(r.Messages, m)

	case MessageLog:
		r.Messages = append(r.Messages, LogMsg{Common: common})

	default:
		// Retained in the full sequence, categorized nowhere.
		r.Messages = append(r.Messages, UnknownMsg{Common: common})
	}
}
