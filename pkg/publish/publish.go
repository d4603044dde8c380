/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package publish posts composed reports to GitHub. Reports are
// deduplicated by the marker embedded in the body: a pull request gets a
// single comment that is edited in place, and outside PR context a single
// tracked status issue is kept up to date.
package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// Publisher issues the comment and issue calls for a single repository.
type Publisher struct {
	client *github.Client
	owner  string
	repo   string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClient overrides the GitHub client, primarily for tests.
func WithClient(c *github.Client) Option {
	return func(p *Publisher) {
		p.client = c
	}
}

// New builds a Publisher authenticated with the given token. The underlying
// transport waits out GitHub secondary rate limits instead of failing.
func New(ctx context.Context, token, owner, repo string, opts ...Option) *Publisher {
	p := &Publisher{owner: owner, repo: repo}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		base := oauth2.NewClient(ctx, ts)
		p.client = github.NewClient(NewRateLimitWaiterClient(base.Transport))
	}
	return p
}

// UpsertComment creates or replaces the report comment on a pull request.
// The first comment carrying marker is edited in place; any further
// duplicates are deleted so exactly one report remains.
func (p *Publisher) UpsertComment(ctx context.Context, prNumber int, marker, body string) error {
	log := clog.FromContext(ctx)

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var matches []*github.IssueComment
	for {
		comments, resp, err := p.client.Issues.ListComments(ctx, p.owner, p.repo, prNumber, opts)
		if err != nil {
			return fmt.Errorf("listing comments: %w", err)
		}
		for _, com := range comments {
			if strings.Contains(com.GetBody(), marker) {
				matches = append(matches, com)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(matches) == 0 {
		if _, _, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, prNumber, &github.IssueComment{
			Body: github.Ptr(body),
		}); err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}
		log.Infof("Created report comment on PR #%d", prNumber)
		return nil
	}

	if _, _, err := p.client.Issues.EditComment(ctx, p.owner, p.repo, matches[0].GetID(), &github.IssueComment{
		Body: github.Ptr(body),
	}); err != nil {
		return fmt.Errorf("editing comment %d: %w", matches[0].GetID(), err)
	}
	log.Infof("Updated report comment %d on PR #%d", matches[0].GetID(), prNumber)

	for _, dup := range matches[1:] {
		if _, err := p.client.Issues.DeleteComment(ctx, p.owner, p.repo, dup.GetID()); err != nil {
			return fmt.Errorf("deleting duplicate comment %d: %w", dup.GetID(), err)
		}
		log.Infof("Deleted duplicate report comment %d", dup.GetID())
	}
	return nil
}

// UpsertIssue creates or updates the tracked status issue identified by
// marker. Search quoting matters here: the marker is quoted so the escaping
// applied by report.EscapeWorkspace cannot break the search grammar, and
// every hit is re-checked against the raw body because issue search is
// best-effort about exact phrases.
func (p *Publisher) UpsertIssue(ctx context.Context, marker, title, body string) error {
	log := clog.FromContext(ctx)

	query := fmt.Sprintf(`repo:%s/%s in:body %q`, p.owner, p.repo, marker)
	res, _, err := p.client.Search.Issues(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 10},
	})
	if err != nil {
		return fmt.Errorf("searching for status issue: %w", err)
	}

	for _, issue := range res.Issues {
		if issue.IsPullRequest() || !strings.Contains(issue.GetBody(), marker) {
			continue
		}
		if _, _, err := p.client.Issues.Edit(ctx, p.owner, p.repo, issue.GetNumber(), &github.IssueRequest{
			Title: github.Ptr(title),
			Body:  github.Ptr(body),
		}); err != nil {
			return fmt.Errorf("updating issue #%d: %w", issue.GetNumber(), err)
		}
		log.Infof("Updated status issue #%d", issue.GetNumber())
		return nil
	}

	issue, _, err := p.client.Issues.Create(ctx, p.owner, p.repo, &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating status issue: %w", err)
	}
	log.Infof("Created status issue #%d: %s", issue.GetNumber(), issue.GetHTMLURL())
	return nil
}
