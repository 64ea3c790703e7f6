// Package github syncs phase execution status onto the GitHub issues
// referenced by a master plan: moving labels as a phase starts,
// completes, or fails, and optionally closing issues on completion.
package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v82/github"

	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/model"
)

// Syncer mirrors phase status onto GitHub issues. Every method is
// best-effort: a GitHub API failure is returned to the caller, which
// in the orchestrator is always logged and never allowed to abort
// orchestration.
type Syncer struct {
	client *github.Client
	owner  string
	repo   string
	cfg    config.GitHubSyncConfig
}

// New creates a Syncer for the given "owner/repo" string, authenticated
// with token (a GitHub personal access token, read from config/env by
// the caller).
func New(token, ownerRepo string, cfg config.GitHubSyncConfig) (*Syncer, error) {
	parts := strings.SplitN(ownerRepo, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("github repo must be in owner/repo form, got %q", ownerRepo)
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Syncer{client: client, owner: parts[0], repo: parts[1], cfg: cfg}, nil
}

// EnsureLabels creates any of the configured labels that don't already
// exist in the repo, when CreateLabelsIfMissing is set.
func (s *Syncer) EnsureLabels(ctx context.Context) error {
	if !s.cfg.CreateLabelsIfMissing {
		return nil
	}

	wanted := map[string]string{
		s.cfg.Labels.InProgress: s.cfg.Labels.ColorInProgress,
		s.cfg.Labels.Completed:  s.cfg.Labels.ColorCompleted,
		s.cfg.Labels.Failed:    s.cfg.Labels.ColorFailed,
	}

	for name, color := range wanted {
		if name == "" {
			continue
		}
		if s.cfg.DryRun {
			continue
		}
		_, _, err := s.client.Issues.CreateLabel(ctx, s.owner, s.repo, &github.Label{
			Name:  github.Ptr(name),
			Color: github.Ptr(strings.TrimPrefix(color, "#")),
		})
		if err != nil && !isAlreadyExistsErr(err) {
			return fmt.Errorf("create label %s: %w", name, err)
		}
	}
	return nil
}

// OnPhaseStarted swaps any lifecycle label on the issue for
// "in-progress".
func (s *Syncer) OnPhaseStarted(ctx context.Context, issueNumber string) error {
	return s.transitionLabel(ctx, issueNumber, s.cfg.Labels.InProgress)
}

// OnPhaseCompleted swaps the issue's label to "completed" and, if
// AutoClose is set, closes it.
func (s *Syncer) OnPhaseCompleted(ctx context.Context, issueNumber string) error {
	if err := s.transitionLabel(ctx, issueNumber, s.cfg.Labels.Completed); err != nil {
		return err
	}
	if !s.cfg.AutoClose || s.cfg.DryRun {
		return nil
	}
	num, err := strconv.Atoi(issueNumber)
	if err != nil {
		return fmt.Errorf("invalid issue number %q: %w", issueNumber, err)
	}
	_, _, err = s.client.Issues.Edit(ctx, s.owner, s.repo, num, &github.IssueRequest{
		State: github.Ptr("closed"),
	})
	if err != nil {
		return fmt.Errorf("close issue #%s: %w", issueNumber, err)
	}
	return nil
}

// OnPhaseFailed swaps the issue's label to "failed".
func (s *Syncer) OnPhaseFailed(ctx context.Context, issueNumber string) error {
	return s.transitionLabel(ctx, issueNumber, s.cfg.Labels.Failed)
}

func (s *Syncer) transitionLabel(ctx context.Context, issueNumber, newLabel string) error {
	if newLabel == "" || s.cfg.DryRun {
		return nil
	}
	num, err := strconv.Atoi(issueNumber)
	if err != nil {
		return fmt.Errorf("invalid issue number %q: %w", issueNumber, err)
	}

	for _, lifecycle := range []string{s.cfg.Labels.InProgress, s.cfg.Labels.Completed, s.cfg.Labels.Failed} {
		if lifecycle == "" || lifecycle == newLabel {
			continue
		}
		_, _ = s.client.Issues.RemoveLabelForIssue(ctx, s.owner, s.repo, num, lifecycle)
	}

	_, _, err = s.client.Issues.AddLabelsToIssue(ctx, s.owner, s.repo, num, []string{newLabel})
	if err != nil {
		return fmt.Errorf("add label %s to issue #%s: %w", newLabel, issueNumber, err)
	}
	return nil
}

func isAlreadyExistsErr(err error) bool {
	return strings.Contains(err.Error(), "already_exists")
}

// IssueNumbersFromPlan extracts the comma-separated issue numbers a
// master plan's GitHubIssues field lists.
func IssueNumbersFromPlan(plan model.MasterPlan) []string {
	if plan.GitHubIssues == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(plan.GitHubIssues, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "#")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
