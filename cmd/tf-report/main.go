/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// tf-report reads the steps context of the current GitHub Actions job and
// publishes a Markdown status report: a comment on the pull request when
// the run is in PR context, a tracked status issue otherwise.
package main

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/chainguard-dev/tf-report-action/pkg/actions"
	"github.com/chainguard-dev/tf-report-action/pkg/publish"
	"github.com/chainguard-dev/tf-report-action/pkg/report"
	"github.com/chainguard-dev/tf-report-action/pkg/steps"
)

func main() {
	root := &cobra.Command{
		Use:           "tf-report",
		Short:         "Report GitHub Actions job results as a PR comment or status issue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	ctx := context.Background()
	if err := root.ExecuteContext(ctx); err != nil {
		clog.FromContext(ctx).Fatalf("tf-report: %v", err)
	}
}

func run(ctx context.Context) error {
	log := clog.FromContext(ctx)

	cfg, err := actions.Load(ctx)
	if err != nil {
		return err
	}
	owner, repo, err := cfg.OwnerRepo()
	if err != nil {
		return err
	}

	named, err := steps.ParseSteps([]byte(cfg.Steps))
	if err != nil {
		return fmt.Errorf("parsing steps context: %w", err)
	}
	for i := range named {
		if err := actions.ResolveOutputs(named[i].Step.Outputs); err != nil {
			return err
		}
	}

	analysis := steps.Analyze(named, cfg.TargetStep)
	log.With(
		"workspace", cfg.Workspace,
		"steps", analysis.Total,
		"failures", len(analysis.Failures),
		"success", analysis.Success,
	).Info("Analyzed job steps")

	composer := report.Composer{
		Workspace: cfg.Workspace,
		Formatter: report.Formatter{LogURL: cfg.RunLogURL()},
	}
	title, body := composer.Compose(analysis)
	marker := report.Marker(cfg.Workspace)

	pub := publish.New(ctx, cfg.Token, owner, repo)

	prNumber, err := cfg.PullRequestNumber()
	if err != nil {
		return err
	}
	if prNumber > 0 {
		log.With("pr", prNumber).Info("Publishing report as pull request comment")
		return pub.UpsertComment(ctx, prNumber, marker, body)
	}
	log.Info("Publishing report as status issue")
	return pub.UpsertIssue(ctx, marker, title, body)
}
