/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report assembles the Markdown body posted as a PR comment or
// status issue: dedup marker, title, per-step sections and size caps.
package report

import "strings"

// markerPrefix and markerSuffix delimit the dedup marker embedded at the
// top of every report body. The marker is what lets a later run find and
// replace its own earlier report.
const (
	markerPrefix = `<!-- tf-report-action:"`
	markerSuffix = `" -->`
)

// Marker returns the HTML-comment dedup marker for a workspace. The same
// workspace always produces the same marker, regardless of report content.
func Marker(workspace string) string {
	return markerPrefix + EscapeWorkspace(workspace) + markerSuffix
}

// EscapeWorkspace makes an arbitrary workspace label safe inside the quoted
// HTML-comment marker. Backslashes are escaped before quotes and quotes
// before comment closers so no replacement re-escapes another's output.
func EscapeWorkspace(workspace string) string {
	workspace = strings.ReplaceAll(workspace, `\`, `\\`)
	workspace = strings.ReplaceAll(workspace, `"`, `\"`)
	workspace = strings.ReplaceAll(workspace, `-->`, `--\>`)
	return workspace
}
