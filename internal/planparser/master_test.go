package planparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func writePlan(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "master-plan.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseMasterPlanInlineMarkers(t *testing.T) {
	dir := t.TempDir()
	content := `# Demo Project - Master Plan

**GitHub Repo:** acme/widgets
**GitHub Issues:** #12, #34
**Jira Issues:** PROJ-5

| 1 | [Setup](phase-1.md) | infra | low | pending |
| 2 | [Build](phase-2.md) | core | medium | in_progress |
`
	path := writePlan(t, dir, content)

	plan, err := ParseMasterPlan(path)
	require.NoError(t, err)

	require.Equal(t, "Demo Project", plan.Name)
	require.Equal(t, "acme/widgets", plan.GitHubRepo)
	require.Equal(t, "#12, #34", plan.GitHubIssues)
	require.Equal(t, "PROJ-5", plan.JiraIssues)
	require.Len(t, plan.Phases, 2)
	require.Equal(t, "1", plan.Phases[0].ID)
	require.Equal(t, "Setup", plan.Phases[0].Title)
	require.Equal(t, model.PhaseStatusPending, plan.Phases[0].Status)
	require.Equal(t, model.PhaseStatusRunning, plan.Phases[1].Status)
}

func TestParseMasterPlanFrontMatterOverridesInline(t *testing.T) {
	dir := t.TempDir()
	content := `---
github_repo: acme/front-matter-repo
jira_issues: PROJ-99
---
# Demo Project - Master Plan

**GitHub Repo:** acme/inline-repo

| 1 | [Setup](phase-1.md) | infra | low | pending |
`
	path := writePlan(t, dir, content)

	plan, err := ParseMasterPlan(path)
	require.NoError(t, err)

	require.Equal(t, "acme/front-matter-repo", plan.GitHubRepo)
	require.Equal(t, "PROJ-99", plan.JiraIssues)
	require.Len(t, plan.Phases, 1)
}

func TestParseMasterPlanMalformedFrontMatterFallsBack(t *testing.T) {
	dir := t.TempDir()
	content := "---\n[not: valid: yaml\n---\n# Demo Project - Master Plan\n\n**GitHub Repo:** acme/inline-repo\n"
	path := writePlan(t, dir, content)

	plan, err := ParseMasterPlan(path)
	require.NoError(t, err)
	require.Equal(t, "acme/inline-repo", plan.GitHubRepo)
}

func TestParseMasterPlanMissingFile(t *testing.T) {
	_, err := ParseMasterPlan(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
}
