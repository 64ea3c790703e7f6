package gates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func TestRunGatesAllPass(t *testing.T) {
	r := New(t.TempDir())
	gates := []model.Gate{
		{Name: "ok1", Command: "exit 0", Blocking: true},
		{Name: "ok2", Command: "echo hi", Blocking: true},
	}

	results := r.RunGates(context.Background(), gates)

	require.Len(t, results, 2)
	require.True(t, VerifyAllGatesPass(results))
	require.Contains(t, results[1].Output, "hi")
}

func TestRunGatesStopsAtBlockingFailure(t *testing.T) {
	r := New(t.TempDir())
	gates := []model.Gate{
		{Name: "fails", Command: "exit 1", Blocking: true},
		{Name: "never-runs", Command: "exit 0", Blocking: true},
	}

	results := r.RunGates(context.Background(), gates)

	require.Len(t, results, 1)
	require.False(t, results[0].Passed)
	require.False(t, VerifyAllGatesPass(results))
}

func TestRunGatesNonBlockingFailureContinues(t *testing.T) {
	r := New(t.TempDir())
	gates := []model.Gate{
		{Name: "fails", Command: "exit 1", Blocking: false},
		{Name: "runs", Command: "exit 0", Blocking: true},
	}

	results := r.RunGates(context.Background(), gates)

	require.Len(t, results, 2)
	require.False(t, results[0].Passed)
	require.True(t, results[1].Passed)
}

func TestRunSingleGateByNameNotFound(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.RunSingleGateByName(context.Background(), nil, "missing")
	require.Error(t, err)
}

func TestRunSingleGateTimeout(t *testing.T) {
	r := New(t.TempDir())
	r.Timeout = 2 * time.Second

	result := r.runSingleGate(context.Background(), model.Gate{Name: "slow", Command: "sleep 5"})

	require.False(t, result.Passed)
	require.Equal(t, "TIMEOUT after 2 seconds", result.Output)
}
