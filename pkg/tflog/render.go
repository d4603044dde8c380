/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tflog

import (
	"fmt"
	"strings"
)

// Render turns a parse Result into Markdown. Sections appear in a fixed
// order: change summary, errors, warnings, planned or applied changes,
// resource drift. Only the change summary sits outside a collapsible block
// so it stays visible without expansion; every other section is its own
// independently expandable <details> element. Empty categories emit
// nothing; an entirely empty Result renders the empty string so the caller
// can fall back to generic formatting.
func Render(r *Result) string {
	var sections []string
	if s := summarySection(r.ChangeSummary); s != "" {
		sections = append(sections, s)
	}
	if s := diagnosticsSection("❌ Errors", ":x:", r.Errors); s != "" {
		sections = append(sections, s)
	}
	if s := diagnosticsSection("⚠️ Warnings", ":warning:", r.Warnings); s != "" {
		sections = append(sections, s)
	}
	if s := changesSection(r); s != "" {
		sections = append(sections, s)
	}
	if s := hooksSection(":cyclone: Resource drift", r.Drift); s != "" {
		sections = append(sections, s)
	}
	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// summarySection renders the aggregate counts. The counts are always
// recomputed into our own phrasing rather than echoing the upstream
// message, so the wording stays stable across Terraform versions.
func summarySection(s *ChangeSummary) string {
	if s == nil {
		return ""
	}
	if !s.HasChanges() {
		return "**No changes.** Your infrastructure matches the configuration."
	}
	parts := []string{
		fmt.Sprintf("%d to add :heavy_plus_sign:", s.Add),
		fmt.Sprintf("%d to change :arrows_counterclockwise:", s.Change),
		fmt.Sprintf("%d to remove :heavy_minus_sign:", s.Remove),
	}
	if s.Import > 0 {
		parts = append(parts, fmt.Sprintf("%d to import :inbox_tray:", s.Import))
	}
	return fmt.Sprintf("**%s:** %s", operationLabel(s.Operation), strings.Join(parts, ", "))
}

func operationLabel(op Operation) string {
	switch op {
	case OperationApply:
		return "Apply"
	case OperationDestroy:
		return "Destroy"
	default:
		return "Plan"
	}
}

// diagnosticsSection renders a collapsible section with one block per
// diagnostic: icon and bold summary, detail, file:line reference and an
// hcl-fenced snippet, each only when present. Errors and warnings each get
// their own section so they expand independently.
func diagnosticsSection(header, icon string, diags []*Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<details><summary>%s</summary>\n", header)
	for _, d := range diags {
		fmt.Fprintf(&b, "\n%s **%s**\n", icon, d.Summary)
		if d.Detail != "" {
			b.WriteString("\n" + d.Detail + "\n")
		}
		if d.Range != nil && d.Range.Filename != "" {
			fmt.Fprintf(&b, "\n`%s:%d`\n", d.Range.Filename, d.Range.Start.Line)
		}
		if d.Snippet != nil && d.Snippet.Code != "" {
			fmt.Fprintf(&b, "\n```hcl\n%s\n```\n", d.Snippet.Code)
		}
	}
	b.WriteString("\n</details>")
	return b.String()
}

// changesSection picks planned or applied entries based on the detected
// operation. A plan renders planned_change records, an apply renders
// apply_complete records, and a stream with planned changes but no summary
// record still renders them. A summary reporting zero changes suppresses
// the section entirely, matching the visible "No changes" line.
func changesSection(r *Result) string {
	if r.ChangeSummary != nil && !r.ChangeSummary.HasChanges() {
		return ""
	}
	label, entries := "Planned changes", r.PlannedChanges
	if r.ChangeSummary != nil && r.ChangeSummary.Operation == OperationApply {
		label, entries = "Applied changes", r.AppliesComplete
	}
	return hooksSection(label, entries)
}

// hooksSection renders a collapsible list of resource changes. Nothing is
// emitted for an empty list so zero-change runs produce no empty shell.
func hooksSection(label string, hooks []*Hook) string {
	if len(hooks) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<details><summary>%s</summary>\n\n", label)
	for _, h := range hooks {
		action := NormalizeAction(h.Action)
		fmt.Fprintf(&b, "- %s **%s** (%s)\n", action.Emoji(), h.Resource.Identity(), action)
	}
	b.WriteString("\n</details>")
	return b.String()
}
