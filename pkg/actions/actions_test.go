/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package actions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainguard-dev/tf-report-action/pkg/steps"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_REPOSITORY", "org/repo")
	t.Setenv("INPUT_STEPS", `{"plan":{"outcome":"success"}}`)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace != "default" {
		t.Errorf("Workspace = %q, want default", cfg.Workspace)
	}
	if cfg.ServerURL != "https://github.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}

	owner, repo, err := cfg.OwnerRepo()
	if err != nil {
		t.Fatalf("OwnerRepo() error = %v", err)
	}
	if owner != "org" || repo != "repo" {
		t.Errorf("OwnerRepo() = %q, %q", owner, repo)
	}
}

func TestLoadMissingToken(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the var truly absent.
	t.Setenv("GITHUB_TOKEN", "placeholder")
	os.Unsetenv("GITHUB_TOKEN")
	t.Setenv("GITHUB_REPOSITORY", "org/repo")
	t.Setenv("INPUT_STEPS", `{}`)
	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() error = nil, want missing-token error")
	}
}

func TestRunLogURL(t *testing.T) {
	cfg := &Config{ServerURL: "https://github.com", Repository: "org/repo", RunID: "12345"}
	want := "https://github.com/org/repo/actions/runs/12345"
	if got := cfg.RunLogURL(); got != want {
		t.Errorf("RunLogURL() = %q, want %q", got, want)
	}

	cfg.RunID = ""
	if got := cfg.RunLogURL(); got != "" {
		t.Errorf("RunLogURL() = %q, want empty without a run ID", got)
	}
}

func TestOwnerRepoMalformed(t *testing.T) {
	for _, repo := range []string{"", "org", "/repo", "org/"} {
		cfg := &Config{Repository: repo}
		if _, _, err := cfg.OwnerRepo(); err == nil {
			t.Errorf("OwnerRepo(%q) error = nil, want error", repo)
		}
	}
}

func TestPullRequestNumber(t *testing.T) {
	dir := t.TempDir()
	eventPath := filepath.Join(dir, "event.json")
	if err := os.WriteFile(eventPath, []byte(`{"pull_request": {"number": 42}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{EventPath: eventPath}
	got, err := cfg.PullRequestNumber()
	if err != nil {
		t.Fatalf("PullRequestNumber() error = %v", err)
	}
	if got != 42 {
		t.Errorf("PullRequestNumber() = %d, want 42", got)
	}
}

func TestPullRequestNumberNonPREvent(t *testing.T) {
	dir := t.TempDir()
	eventPath := filepath.Join(dir, "event.json")
	if err := os.WriteFile(eventPath, []byte(`{"schedule": "0 0 * * *"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{EventPath: eventPath}
	got, err := cfg.PullRequestNumber()
	if err != nil {
		t.Fatalf("PullRequestNumber() error = %v", err)
	}
	if got != 0 {
		t.Errorf("PullRequestNumber() = %d, want 0", got)
	}
}

func TestResolveOutputs(t *testing.T) {
	dir := t.TempDir()
	stdoutPath := filepath.Join(dir, "stdout.log")
	if err := os.WriteFile(stdoutPath, []byte("captured terraform output"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := &steps.Outputs{Stdout: stdoutPath, Stderr: "inline stderr text"}
	if err := ResolveOutputs(o); err != nil {
		t.Fatalf("ResolveOutputs() error = %v", err)
	}
	if o.Stdout != "captured terraform output" {
		t.Errorf("Stdout = %q, want file contents", o.Stdout)
	}
	if o.Stderr != "inline stderr text" {
		t.Errorf("Stderr = %q, want inline value untouched", o.Stderr)
	}
}

func TestResolveOutputsNil(t *testing.T) {
	if err := ResolveOutputs(nil); err != nil {
		t.Errorf("ResolveOutputs(nil) error = %v", err)
	}
}
