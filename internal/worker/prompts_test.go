package worker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func TestBuildPhasePromptIncludesAllSections(t *testing.T) {
	phase := model.Phase{
		ID:             "2",
		Title:          "Build Core",
		Path:           "phase-2.md",
		NotesInput:     "notes/phase-1.md",
		NotesOutput:    "notes/phase-2.md",
		RequiredAgents: []string{"task-validator"},
	}

	got := BuildPhasePrompt(phase, "run-1")

	require.Contains(t, got, "Phase 2: Build Core")
	require.Contains(t, got, "notes/phase-1.md")
	require.Contains(t, got, "task-validator")
	require.Contains(t, got, "notes/phase-2.md")
	require.Contains(t, got, "orc done --phase 2")
}

func TestBuildPhasePromptOmitsOptionalSections(t *testing.T) {
	phase := model.Phase{ID: "1", Title: "Setup", Path: "phase-1.md"}

	got := BuildPhasePrompt(phase, "run-1")

	require.NotContains(t, got, "Previous Notes")
	require.NotContains(t, got, "Required Agents")
	require.NotContains(t, got, "Notes Output")
}

func TestBuildRemediationPromptListsIssuesAndActions(t *testing.T) {
	issues := []model.ComplianceIssue{
		{Type: model.IssueAgentSkipped, Severity: model.SeverityCritical, Details: "task-validator never ran"},
		{Type: model.IssueGatesFailed, Severity: model.SeverityCritical, Details: "pytest failed"},
	}

	got := BuildRemediationPrompt(model.Phase{ID: "2"}, issues)

	require.Contains(t, got, "task-validator never ran")
	require.Contains(t, got, "Invoke the missing agent(s)")
	require.Contains(t, got, "pytest failed")
	require.Contains(t, got, "Fix the failing gate(s)")
}

func TestBuildCheckpointRestartPromptIncludesSummaryAndPhasePrompt(t *testing.T) {
	phase := model.Phase{ID: "1", Title: "Setup", Path: "phase-1.md"}

	got := BuildCheckpointRestartPrompt(phase, "- did X\n- did Y\n")

	require.Contains(t, got, "Resuming Phase 1")
	require.Contains(t, got, "did X")
	require.Contains(t, got, "Phase 1: Setup")
}
