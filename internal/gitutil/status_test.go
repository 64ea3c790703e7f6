package gitutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePorcelainSplitsUntrackedAndModified(t *testing.T) {
	output := " M internal/worker/runner.go\n?? internal/new_file.go\nA  internal/added.go\n"

	status := ParsePorcelain(output)

	require.Equal(t, []string{"internal/new_file.go"}, status.Untracked)
	require.Equal(t, []string{"internal/worker/runner.go", "internal/added.go"}, status.Modified)
}

func TestParsePorcelainHandlesRenames(t *testing.T) {
	output := "R  old_name.go -> new_name.go\n"

	status := ParsePorcelain(output)

	require.Equal(t, []string{"new_name.go"}, status.Modified)
}

func TestParsePorcelainIgnoresShortLines(t *testing.T) {
	status := ParsePorcelain("\n \nM\n")
	require.Empty(t, status.Untracked)
	require.Empty(t, status.Modified)
}

func TestStatusIsClean(t *testing.T) {
	require.True(t, Status{}.IsClean())
	require.False(t, Status{Untracked: []string{"a"}}.IsClean())
	require.False(t, Status{Modified: []string{"a"}}.IsClean())
}

func TestStatusHasTrackedChanges(t *testing.T) {
	require.False(t, Status{Untracked: []string{"a"}}.HasTrackedChanges())
	require.True(t, Status{Modified: []string{"a"}}.HasTrackedChanges())
}

func TestCommitTemplateSubstitutes(t *testing.T) {
	got := CommitTemplate("phase {phase_id} ({phase_name}): {status}", "2", "Build Core", "completed")
	require.Equal(t, "phase 2 (Build Core): completed", got)
}

func TestDetectGitHubRepoNoRemote(t *testing.T) {
	got := DetectGitHubRepo(context.Background(), t.TempDir())
	require.Equal(t, "", got)
}

func TestGetStatusNotAGitRepo(t *testing.T) {
	got := GetStatus(context.Background(), t.TempDir())
	require.Nil(t, got)
}

func TestCheckWorkingDirectoryNotAGitRepoIsClean(t *testing.T) {
	clean, count, sample := CheckWorkingDirectory(context.Background(), t.TempDir())
	require.True(t, clean)
	require.Zero(t, count)
	require.Nil(t, sample)
}
