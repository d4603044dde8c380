/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package tflog decodes Terraform's machine-readable UI log stream (the
// output of running with -json) and renders the interesting parts as
// Markdown suitable for a pull request comment.
package tflog

import "time"

// MessageType discriminates the JSON records Terraform emits, one per line.
type MessageType string

const (
	MessageVersion       MessageType = "version"
	MessageLog           MessageType = "log"
	MessageDiagnostic    MessageType = "diagnostic"
	MessagePlannedChange MessageType = "planned_change"
	MessageChangeSummary MessageType = "change_summary"
	MessageResourceDrift MessageType = "resource_drift"
	MessageOutputs       MessageType = "outputs"

	MessageApplyStart    MessageType = "apply_start"
	MessageApplyProgress MessageType = "apply_progress"
	MessageApplyComplete MessageType = "apply_complete"
	MessageApplyErrored  MessageType = "apply_errored"

	MessageProvisionStart    MessageType = "provision_start"
	MessageProvisionProgress MessageType = "provision_progress"
	MessageProvisionComplete MessageType = "provision_complete"
	MessageProvisionErrored  MessageType = "provision_errored"

	MessageRefreshStart    MessageType = "refresh_start"
	MessageRefreshComplete MessageType = "refresh_complete"

	MessageTestAbstract MessageType = "test_abstract"
	MessageTestFile     MessageType = "test_file"
	MessageTestRun      MessageType = "test_run"
	MessageTestSummary  MessageType = "test_summary"
)

// Common carries the fields present on every record.
type Common struct {
	Type      MessageType `json:"type"`
	Level     string      `json:"@level"`
	Message   string      `json:"@message"`
	Module    string      `json:"@module"`
	Timestamp time.Time   `json:"@timestamp"`
}

// CommonFields implements Message.
func (c Common) CommonFields() Common { return c }

// Message is any recognized record from the stream.
type Message interface {
	CommonFields() Common
}

// VersionMsg announces the Terraform and UI protocol versions.
type VersionMsg struct {
	Common
	Terraform string `json:"terraform"`
	UI        string `json:"ui"`
}

// LogMsg is an untyped human-oriented log line.
type LogMsg struct {
	Common
}

// DiagnosticMsg wraps a single diagnostic (error or warning).
type DiagnosticMsg struct {
	Common
	Diagnostic *Diagnostic `json:"diagnostic"`
}

// PlannedChangeMsg describes one resource change the plan intends to make.
type PlannedChangeMsg struct {
	Common
	Change *Hook `json:"change"`
}

// ResourceDriftMsg describes a resource whose live state no longer matches
// the recorded state.
type ResourceDriftMsg struct {
	Common
	Change *Hook `json:"change"`
}

// ChangeSummaryMsg is the aggregate count record for a plan or apply.
type ChangeSummaryMsg struct {
	Common
	Changes *ChangeSummary `json:"changes"`
}

// HookMsg covers the apply_*, provision_* and refresh_* lifecycle records,
// which all share the same hook payload.
type HookMsg struct {
	Common
	Hook *Hook `json:"hook"`
}

// UnknownMsg retains records whose type we do not categorize.
type UnknownMsg struct {
	Common
}

// Diagnostic is a single error or warning, optionally pointing at source.
type Diagnostic struct {
	Severity string   `json:"severity"`
	Summary  string   `json:"summary"`
	Detail   string   `json:"detail"`
	Address  string   `json:"address"`
	Range    *Range   `json:"range"`
	Snippet  *Snippet `json:"snippet"`
}

// Range locates a diagnostic in a configuration file.
type Range struct {
	Filename string `json:"filename"`
	Start    Pos    `json:"start"`
	End      Pos    `json:"end"`
}

// Pos is a position within a file.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Byte   int `json:"byte"`
}

// Snippet is the source excerpt attached to a diagnostic.
type Snippet struct {
	Context   string `json:"context"`
	Code      string `json:"code"`
	StartLine int    `json:"start_line"`
}

// ResourceAddr identifies the resource a change or hook refers to.
type ResourceAddr struct {
	Addr         string `json:"addr"`
	Module       string `json:"module"`
	Resource     string `json:"resource"`
	ResourceType string `json:"resource_type"`
	ResourceName string `json:"resource_name"`
}

// Identity returns the display address for the resource, falling back to
// type.name when the full address is absent.
func (r ResourceAddr) Identity() string {
	if r.Addr != "" {
		return r.Addr
	}
	if r.ResourceType != "" && r.ResourceName != "" {
		return r.ResourceType + "." + r.ResourceName
	}
	return r.Resource
}

// Hook is the payload shared by planned_change, resource_drift and the
// apply/provision/refresh lifecycle records.
type Hook struct {
	Resource ResourceAddr `json:"resource"`
	Action   string       `json:"action"`
	Elapsed  float64      `json:"elapsed_seconds"`
	IDKey    string       `json:"id_key"`
	IDValue  string       `json:"id_value"`
}

// Action is the closed set of operations a change can perform.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionReplace Action = "replace"
	ActionDelete  Action = "delete"
	ActionMove    Action = "move"
	ActionNoop    Action = "noop"
)

// actionEmoji is a fixed lookup table; the action string is the sole input.
var actionEmoji = map[Action]string{
	ActionCreate:  ":heavy_plus_sign:",
	ActionRead:    ":book:",
	ActionUpdate:  ":arrows_counterclockwise:",
	ActionReplace: ":recycle:",
	ActionDelete:  ":heavy_minus_sign:",
	ActionMove:    ":truck:",
	ActionNoop:    ":white_circle:",
}

// Emoji returns the icon for the action. Unknown actions get a neutral dot.
func (a Action) Emoji() string {
	if e, ok := actionEmoji[a]; ok {
		return e
	}
	return ":small_blue_diamond:"
}

// NormalizeAction folds aliases onto the closed action set; "remove" is the
// wire spelling of delete in some record kinds.
func NormalizeAction(s string) Action {
	switch s {
	case "remove", "delete":
		return ActionDelete
	case "no-op", "noop":
		return ActionNoop
	default:
		return Action(s)
	}
}

// Operation tags a change summary with what produced it.
type Operation string

const (
	OperationPlan    Operation = "plan"
	OperationApply   Operation = "apply"
	OperationDestroy Operation = "destroy"
)

// ChangeSummary holds the aggregate resource counts for an operation.
type ChangeSummary struct {
	Add       int       `json:"add"`
	Change    int       `json:"change"`
	Remove    int       `json:"remove"`
	Import    int       `json:"import"`
	Operation Operation `json:"operation"`
}

// HasChanges reports whether any count is nonzero.
func (c ChangeSummary) HasChanges() bool {
	return c.Add != 0 || c.Change != 0 || c.Remove != 0 || c.Import != 0
}
