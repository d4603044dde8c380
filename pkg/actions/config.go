/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package actions reads the GitHub Actions environment this binary runs in.
// All environment and filesystem access lives here so the analysis and
// rendering packages stay pure functions of their inputs.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config is the complete environment surface of the action.
type Config struct {
	Token      string `env:"GITHUB_TOKEN,required"`
	Repository string `env:"GITHUB_REPOSITORY,required"`
	ServerURL  string `env:"GITHUB_SERVER_URL,default=https://github.com"`
	RunID      string `env:"GITHUB_RUN_ID"`
	EventName  string `env:"GITHUB_EVENT_NAME"`
	EventPath  string `env:"GITHUB_EVENT_PATH"`

	// Action inputs, as the runner exposes them.
	Steps      string `env:"INPUT_STEPS,required"`
	Workspace  string `env:"INPUT_WORKSPACE,default=default"`
	TargetStep string `env:"INPUT_TARGET_STEP"`
}

// Load processes the environment into a Config.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}

// OwnerRepo splits GITHUB_REPOSITORY into its owner and repo parts.
func (c *Config) OwnerRepo() (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("malformed GITHUB_REPOSITORY %q", c.Repository)
	}
	return owner, repo, nil
}

// RunLogURL returns the workflow run page for truncation links, or "" when
// no run ID is available.
func (c *Config) RunLogURL() string {
	if c.RunID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s", c.ServerURL, c.Repository, c.RunID)
}
