package jira

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/model"
)

func TestDryRunSkipsTransitions(t *testing.T) {
	s, err := New("https://example.atlassian.net", "user@example.com", "token", config.JiraSyncConfig{DryRun: true})
	require.NoError(t, err)

	require.NoError(t, s.OnPhaseStarted(context.Background(), "PROJ-1"))
	require.NoError(t, s.OnPhaseCompleted(context.Background(), "PROJ-1"))
	require.NoError(t, s.OnPhaseFailed(context.Background(), "PROJ-1"))
}

func TestIssueKeysFromPlan(t *testing.T) {
	plan := model.MasterPlan{JiraIssues: "PROJ-1, PROJ-2"}
	require.Equal(t, []string{"PROJ-1", "PROJ-2"}, IssueKeysFromPlan(plan))
}

func TestIssueKeysFromPlanEmpty(t *testing.T) {
	require.Nil(t, IssueKeysFromPlan(model.MasterPlan{}))
}
