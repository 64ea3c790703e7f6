package statestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.CreateRun(ctx, "master-plan.md")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, model.RunStatusRunning, run.Status)

	fetched, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, run.ID, fetched.ID)
	require.Equal(t, "master-plan.md", fetched.MasterPlanPath)
}

func TestUpdateRunStatusSetsCompletedAtWhenTerminal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusCompleted))

	fetched, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, model.RunStatusCompleted, fetched.Status)
	require.NotNil(t, fetched.CompletedAt)
}

func TestGetCurrentRunPrefersRunningOrPaused(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.CreateRun(ctx, "plan-a.md")
	require.NoError(t, err)
	running, err := s.CreateRun(ctx, "plan-b.md")
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, running.ID, model.RunStatusCompleted))

	paused, err := s.CreateRun(ctx, "plan-c.md")
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, paused.ID, model.RunStatusPaused))

	current, err := s.GetCurrentRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, paused.ID, current.ID)
}

func TestSetCurrentPhase(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	require.NoError(t, s.SetCurrentPhase(ctx, run.ID, "2"))

	fetched, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, "2", fetched.CurrentPhase)
}

func TestPhaseExecutionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	id1, err := s.CreatePhaseExecution(ctx, run.ID, "1", 1)
	require.NoError(t, err)
	require.NotZero(t, id1)

	count, err := s.GetAttemptCount(ctx, run.ID, "1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, s.SetPhasePID(ctx, run.ID, "1", 1234))
	require.NoError(t, s.SetPhaseLogPath(ctx, run.ID, "1", "/tmp/session.jsonl"))
	require.NoError(t, s.UpdatePhaseStatus(ctx, run.ID, "1", model.PhaseStatusCompleted, ""))

	executions, err := s.ListPhaseExecutions(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	require.Equal(t, model.PhaseStatusCompleted, executions[0].Status)
	require.Equal(t, 1234, *executions[0].WorkerPID)
	require.Equal(t, "/tmp/session.jsonl", executions[0].LogPath)
	require.NotNil(t, executions[0].CompletedAt)

	completed, err := s.GetCompletedPhases(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, completed["1"])
}

func TestUpdatePhaseStatusAffectsLatestAttemptOnly(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	_, err = s.CreatePhaseExecution(ctx, run.ID, "1", 1)
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhaseStatus(ctx, run.ID, "1", model.PhaseStatusFailed, "boom"))

	_, err = s.CreatePhaseExecution(ctx, run.ID, "1", 2)
	require.NoError(t, err)
	require.NoError(t, s.UpdatePhaseStatus(ctx, run.ID, "1", model.PhaseStatusCompleted, ""))

	executions, err := s.ListPhaseExecutions(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	require.Equal(t, model.PhaseStatusFailed, executions[0].Status)
	require.Equal(t, "boom", executions[0].ErrorMessage)
	require.Equal(t, model.PhaseStatusCompleted, executions[1].Status)
}

func TestGateResults(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	require.NoError(t, s.RecordGateResult(ctx, run.ID, "1", model.GateResult{Name: "ruff", Passed: true, Output: "clean"}))
	require.NoError(t, s.RecordGateResult(ctx, run.ID, "1", model.GateResult{Name: "pytest", Passed: false, Output: "1 failed"}))

	results, err := s.GetGateResults(ctx, run.ID, "1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "ruff", results[0].Name)
	require.True(t, results[0].Passed)
	require.False(t, results[1].Passed)
}

func TestCompletionSignal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	none, err := s.GetCompletionSignal(ctx, run.ID, "1")
	require.NoError(t, err)
	require.Nil(t, none)

	sig := model.CompletionSignal{
		PhaseID: "1",
		Status:  "completed",
		Reason:  "all gates passed",
		Report:  map[string]any{"files_changed": float64(3)},
	}
	require.NoError(t, s.RecordCompletionSignal(ctx, run.ID, sig))

	fetched, err := s.GetCompletionSignal(ctx, run.ID, "1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, "completed", fetched.Status)
	require.Equal(t, "all gates passed", fetched.Reason)
	require.Equal(t, float64(3), fetched.Report["files_changed"])
}

func TestProgressLog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	require.NoError(t, s.LogProgress(ctx, run.ID, "1", "wrote handler"))
	require.NoError(t, s.LogProgress(ctx, run.ID, "1", "ran tests"))

	entries, err := s.GetProgress(ctx, run.ID, "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "wrote handler", entries[0].Step)
	require.Equal(t, "ran tests", entries[1].Step)
}

func TestFindResumableRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	none, err := s.FindResumableRun(ctx, "plan.md")
	require.NoError(t, err)
	require.Nil(t, none)

	run, err := s.CreateRun(ctx, "plan.md")
	require.NoError(t, err)

	found, err := s.FindResumableRun(ctx, "plan.md")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, run.ID, found.ID)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusCompleted))
	found, err = s.FindResumableRun(ctx, "plan.md")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.CreateRun(ctx, "plan.md")
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
