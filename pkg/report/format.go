/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/tf-report-action/pkg/tflog"
)

// perStreamMax bounds each captured stream before it is placed in a
// collapsible section. This per-stream cap is the primary truncation
// mechanism; the whole-body cap in Compose is only a safety net.
const perStreamMax = 12000

// Formatter renders a step's captured output as Markdown.
type Formatter struct {
	// LogURL, when set, is linked from truncation markers so readers can
	// reach the full workflow run log.
	LogURL string
}

// FormatOutputs renders a step's stdout/stderr. A stdout that decodes as a
// Terraform JSON log stream takes over the whole block (the structured
// renderer surfaces errors itself, so stderr is not shown separately).
// Otherwise each non-blank stream gets its own collapsible section.
// Returns "" when there is nothing at all to show, so the caller can emit
// an explicit no-output notice instead of an empty shell.
func (f Formatter) FormatOutputs(stdout, stderr string) string {
	if strings.TrimSpace(stdout) != "" && tflog.IsStructuredLog(stdout) {
		if rendered := tflog.Render(tflog.Parse(stdout)); rendered != "" {
			return rendered
		}
	}
	var sections []string
	if strings.TrimSpace(stdout) != "" {
		sections = append(sections, collapsible(":page_facing_up: Output", f.Truncate(stdout, perStreamMax)))
	}
	if strings.TrimSpace(stderr) != "" {
		sections = append(sections, collapsible(":exclamation: Errors", f.Truncate(stderr, perStreamMax)))
	}
	return strings.Join(sections, "\n\n")
}

// Truncate caps text at max bytes by cutting the middle out and splicing in
// a marker. Build logs put the command context at the start and the error
// at the end, so both ends survive. Cuts land on rune boundaries so the
// result is always valid UTF-8.
func (f Formatter) Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	marker := "\n\n... output truncated ...\n\n"
	if f.LogURL != "" {
		marker = fmt.Sprintf("\n\n... output truncated, full log: %s ...\n\n", f.LogURL)
	}
	budget := max - len(marker)
	if budget <= 0 {
		return headBytes(text, max)
	}
	half := budget / 2
	return headBytes(text, half) + marker + tailBytes(text, half)
}

// headBytes returns a prefix of at most n bytes ending on a rune boundary.
func headBytes(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// tailBytes returns a suffix of at most n bytes starting on a rune boundary.
func tailBytes(text string, n int) string {
	i := len(text) - n
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return text[i:]
}

func collapsible(label, content string) string {
	return fmt.Sprintf("<details><summary>%s</summary>\n\n```\n%s\n```\n\n</details>", label, content)
}
