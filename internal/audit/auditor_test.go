package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAuditCleanPlanPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "phase-1.md"), "# Phase 1: Setup\n**Depends On:** None\n\n## Gates\n- ruff: lint\n\n## Notes\nWrite notes to: `notes/phase-1.md`\n")
	writeFile(t, filepath.Join(dir, "master-plan.md"),
		"# Demo - Master Plan\n\n| 1 | [Setup](phase-1.md) | infra | low | pending |\n")

	a := New()
	result := a.Audit(filepath.Join(dir, "master-plan.md"))

	require.True(t, result.Passed)
	require.Equal(t, 0, result.Summary.Errors)
	require.Equal(t, 1, result.Summary.PhasesFound)
	require.Equal(t, 1, result.Summary.PhasesValid)
}

func TestAuditMissingMasterPlanFile(t *testing.T) {
	a := New()
	result := a.Audit(filepath.Join(t.TempDir(), "missing.md"))

	require.False(t, result.Passed)
	require.Equal(t, 1, result.Summary.Errors)
	require.Equal(t, "MASTER_NOT_FOUND", result.Issues[0].Code)
}

func TestAuditDetectsMissingGatesAndNotes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "phase-1.md"), "# Phase 1: Setup\n**Depends On:** None\n")
	writeFile(t, filepath.Join(dir, "master-plan.md"),
		"# Demo - Master Plan\n\n| 1 | [Setup](phase-1.md) | infra | low | pending |\n")

	a := New()
	result := a.Audit(filepath.Join(dir, "master-plan.md"))

	var codes []string
	for _, iss := range result.Issues {
		codes = append(codes, iss.Code)
	}
	require.Contains(t, codes, "MISSING_GATES")
	require.Contains(t, codes, "NO_NOTES_OUTPUT")
}

func TestAuditDetectsCircularDependency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "phase-1.md"), "# Phase 1: A\n**Depends On:** Phase 2\n\n## Gates\n- ruff: lint\n")
	writeFile(t, filepath.Join(dir, "phase-2.md"), "# Phase 2: B\n**Depends On:** Phase 1\n\n## Gates\n- ruff: lint\n")
	writeFile(t, filepath.Join(dir, "master-plan.md"),
		"# Demo - Master Plan\n\n"+
			"| 1 | [A](phase-1.md) | infra | low | pending |\n"+
			"| 2 | [B](phase-2.md) | infra | low | pending |\n")

	a := New()
	result := a.Audit(filepath.Join(dir, "master-plan.md"))

	require.False(t, result.Passed)
	var found bool
	for _, iss := range result.Issues {
		if iss.Code == "CIRCULAR_DEPENDENCY" {
			found = true
		}
	}
	require.True(t, found)
}

func TestAuditDetectsMissingDependency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "phase-1.md"), "# Phase 1: A\n**Depends On:** Phase 9\n\n## Gates\n- ruff: lint\n")
	writeFile(t, filepath.Join(dir, "master-plan.md"),
		"# Demo - Master Plan\n\n| 1 | [A](phase-1.md) | infra | low | pending |\n")

	a := New()
	result := a.Audit(filepath.Join(dir, "master-plan.md"))

	var found bool
	for _, iss := range result.Issues {
		if iss.Code == "MISSING_DEPENDENCY" {
			found = true
		}
	}
	require.True(t, found)
}
