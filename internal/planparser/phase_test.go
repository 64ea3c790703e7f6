package planparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func writePhase(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParsePhaseFull(t *testing.T) {
	dir := t.TempDir()
	content := "# Phase 2: Build Core\n" +
		"**Status:** in_progress\n" +
		"**Depends On:** Phase 1\n\n" +
		"## Gates\n" +
		"- ruff: lint check\n" +
		"- pytest: unit tests\n\n" +
		"## Tasks\n" +
		"- [x] 2.1: Scaffold package\n" +
		"- [ ] 2.2: Wire config\n\n" +
		"## Agents to Use\n" +
		"| Agent | Notes |\n" +
		"|-------|-------|\n" +
		"| `task-validator` | REQUIRED |\n\n" +
		"## Process Wrapper\n" +
		"Read previous notes: `notes/phase-1.md`\n" +
		"[IMPLEMENTATION]\n" +
		"Pre-validation runs before task-validator.\n" +
		"Write notes to: `notes/NOTES_build_phase_2.md`\n"

	path := writePhase(t, dir, "phase-2.md", content)

	phase, err := ParsePhase(path, "2")
	require.NoError(t, err)

	require.Equal(t, "2", phase.ID)
	require.Equal(t, "Build Core", phase.Title)
	require.Equal(t, model.PhaseStatusRunning, phase.Status)
	require.Equal(t, []string{"1"}, phase.DependsOn)
	require.Len(t, phase.Gates, 2)
	require.Equal(t, "ruff", phase.Gates[0].Name)
	require.Len(t, phase.Tasks, 2)
	require.True(t, phase.Tasks[0].Completed)
	require.False(t, phase.Tasks[1].Completed)
	require.Contains(t, phase.RequiredAgents, "task-validator")
	require.Equal(t, "notes/phase-1.md", phase.NotesInput)
	require.Equal(t, "notes/NOTES_build_phase_2.md", phase.NotesOutput)
	require.Contains(t, phase.RequiredSteps, model.StepReadPreviousNotes)
	require.Contains(t, phase.RequiredSteps, model.StepImplementation)
	require.Contains(t, phase.RequiredSteps, model.StepPreValidation)
	require.Contains(t, phase.RequiredSteps, model.StepTaskValidator)
	require.Contains(t, phase.RequiredSteps, model.StepWriteNotes)
}

func TestParsePhaseDependsOnNoneIsSkipped(t *testing.T) {
	dir := t.TempDir()
	content := "# Phase 1: Setup\n**Depends On:** None\n"
	path := writePhase(t, dir, "phase-1.md", content)

	phase, err := ParsePhase(path, "1")
	require.NoError(t, err)
	require.Empty(t, phase.DependsOn)
}

func TestParsePhaseIDInferredFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := writePhase(t, dir, "phase-7.md", "# Phase 7: Cleanup\n")

	phase, err := ParsePhase(path, "")
	require.NoError(t, err)
	require.Equal(t, "7", phase.ID)
}

func TestParsePhaseMissingFile(t *testing.T) {
	_, err := ParsePhase(filepath.Join(t.TempDir(), "missing.md"), "1")
	require.Error(t, err)
}
