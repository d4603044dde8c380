/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"strings"

	"github.com/chainguard-dev/tf-report-action/pkg/steps"
)

const (
	// bodyMax leaves headroom under GitHub's 65536-character comment limit.
	bodyMax          = 60000
	truncationNotice = "\n\n... report truncated ..."
)

// Composer assembles the final report body for one workspace.
type Composer struct {
	Workspace string
	Formatter Formatter
}

// Compose returns the report title and full body. The body always begins
// with the dedup marker, then a title heading, then the per-step sections.
// The assembled body never exceeds bodyMax.
func (c Composer) Compose(a steps.Analysis) (title, body string) {
	title = c.title(a)

	var b strings.Builder
	b.WriteString(Marker(c.Workspace))
	b.WriteString("\n\n## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(c.body(a))

	out := b.String()
	if len(out) > bodyMax {
		out = headBytes(out, bodyMax-len(truncationNotice)) + truncationNotice
	}
	return title, out
}

func (c Composer) title(a steps.Analysis) string {
	if a.Target == nil {
		if a.Success {
			return fmt.Sprintf("✅ %s Succeeded", c.Workspace)
		}
		return fmt.Sprintf("❌ %s Failed", c.Workspace)
	}
	// A missing target or a failed run both title as a failure of the
	// requested step.
	if !a.Target.Found || !a.Success {
		return fmt.Sprintf("❌ %s Failed", a.Target.Name)
	}
	return fmt.Sprintf("✅ %s Succeeded", a.Target.Name)
}

func (c Composer) body(a steps.Analysis) string {
	if a.Target != nil {
		return c.targetBody(a)
	}
	if a.Success {
		return fmt.Sprintf("All %d step(s) completed successfully.\n", a.Total)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "`%d` of `%d` step(s) failed.\n", len(a.Failures), a.Total)
	for _, f := range a.Failures {
		fmt.Fprintf(&b, "\n### ❌ %s\n\n**Status:** `%s`\n", f.Name, f.Status)
		if f.Outputs != nil && f.Outputs.ExitCode != "" {
			fmt.Fprintf(&b, "\n**Exit code:** `%s`\n", f.Outputs.ExitCode)
		}
		if out := c.formatOutputs(f.Outputs); out != "" {
			b.WriteString("\n" + out + "\n")
		} else {
			fmt.Fprintf(&b, "\nStep `%s` failed with no output captured.\n", f.Name)
		}
	}
	return b.String()
}

func (c Composer) targetBody(a steps.Analysis) string {
	t := a.Target
	switch {
	case !t.Found && len(a.Failures) > 0:
		// Other failures take rendering priority over the missing step.
		var b strings.Builder
		for _, f := range a.Failures {
			fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.Status)
		}
		return b.String()

	case !t.Found:
		return fmt.Sprintf("### Did Not Run\n\nStep `%s` was not found in this job.\n", t.Name)

	case t.Status == "success":
		if out := c.formatOutputs(t.Outputs); out != "" {
			return out + "\n"
		}
		return fmt.Sprintf("Step `%s` completed successfully with no output.\n", t.Name)

	default:
		var b strings.Builder
		fmt.Fprintf(&b, "**Status:** `%s`\n", t.Status)
		if t.Outputs != nil && t.Outputs.ExitCode != "" {
			fmt.Fprintf(&b, "\n**Exit code:** `%s`\n", t.Outputs.ExitCode)
		}
		if out := c.formatOutputs(t.Outputs); out != "" {
			b.WriteString("\n" + out + "\n")
		} else {
			fmt.Fprintf(&b, "\nStep `%s` failed with no output captured.\n", t.Name)
		}
		return b.String()
	}
}

func (c Composer) formatOutputs(o *steps.Outputs) string {
	if o == nil {
		return ""
	}
	return c.Formatter.FormatOutputs(o.Stdout, o.Stderr)
}
