// Package jira syncs phase execution status onto Jira issues
// referenced by a master plan, transitioning them as a phase starts,
// completes, or fails.
package jira

import (
	"context"
	"fmt"
	"strings"

	jira "github.com/ctreminiom/go-atlassian/v2/jira/v2"

	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/model"
)

// transitionNames maps a phase lifecycle event to the Jira workflow
// transition name it triggers. Project workflows vary, so these are
// looked up by name against the issue's available transitions rather
// than assumed by ID.
var transitionNames = map[string]string{
	"started":   "In Progress",
	"completed": "Done",
	"failed":    "Blocked",
}

// Syncer transitions Jira issues as phases progress. Every method is
// best-effort — callers log failures and continue orchestration
// regardless.
type Syncer struct {
	client *jira.Client
	cfg    config.JiraSyncConfig
}

func New(baseURL, email, apiToken string, cfg config.JiraSyncConfig) (*Syncer, error) {
	client, err := jira.New(nil, baseURL)
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}
	client.Auth.SetBasicAuth(email, apiToken)
	return &Syncer{client: client, cfg: cfg}, nil
}

func (s *Syncer) OnPhaseStarted(ctx context.Context, issueKey string) error {
	return s.transition(ctx, issueKey, "started")
}

func (s *Syncer) OnPhaseCompleted(ctx context.Context, issueKey string) error {
	if err := s.transition(ctx, issueKey, "completed"); err != nil {
		return err
	}
	if !s.cfg.AutoClose {
		return nil
	}
	return nil
}

func (s *Syncer) OnPhaseFailed(ctx context.Context, issueKey string) error {
	return s.transition(ctx, issueKey, "failed")
}

func (s *Syncer) transition(ctx context.Context, issueKey, event string) error {
	if s.cfg.DryRun {
		return nil
	}
	wanted, ok := transitionNames[event]
	if !ok {
		return nil
	}

	transitions, _, err := s.client.Issue.Transitions(ctx, issueKey)
	if err != nil {
		return fmt.Errorf("list transitions for %s: %w", issueKey, err)
	}

	for _, t := range transitions.Transitions {
		if t.Name == wanted {
			_, err := s.client.Issue.Move(ctx, issueKey, t.ID, nil)
			if err != nil {
				return fmt.Errorf("transition %s to %s: %w", issueKey, wanted, err)
			}
			return nil
		}
	}
	return fmt.Errorf("no transition named %q available for %s", wanted, issueKey)
}

// IssueKeysFromPlan extracts the comma-separated Jira issue keys a
// master plan's JiraIssues field lists.
func IssueKeysFromPlan(plan model.MasterPlan) []string {
	if plan.JiraIssues == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(plan.JiraIssues, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
