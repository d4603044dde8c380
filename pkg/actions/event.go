/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package actions

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// PullRequestNumber extracts the pull request number from the event
// payload. It returns 0 when the run is not in pull request context, which
// the caller uses to pick status-issue publishing instead.
func (c *Config) PullRequestNumber() (int, error) {
	if c.EventPath == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(c.EventPath)
	if err != nil {
		return 0, fmt.Errorf("reading event payload: %w", err)
	}
	n := gjson.GetBytes(raw, "pull_request.number")
	if !n.Exists() {
		return 0, nil
	}
	return int(n.Int()), nil
}
