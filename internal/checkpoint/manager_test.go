package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	require.Equal(t, "No progress breadcrumbs were recorded before the restart.", got)
}

func TestSummarizeFormatsEntries(t *testing.T) {
	entries := []model.ProgressEntry{
		{Step: "wrote handler", LoggedAt: time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)},
		{Step: "ran tests", LoggedAt: time.Date(2026, 1, 1, 10, 31, 0, 0, time.UTC)},
	}

	got := Summarize(entries)

	require.Contains(t, got, "wrote handler")
	require.Contains(t, got, "ran tests")
	require.Contains(t, got, "10:30:00")
}

func TestFingerprintIsDeterministic(t *testing.T) {
	require.Equal(t, Fingerprint("same content"), Fingerprint("same content"))
	require.NotEqual(t, Fingerprint("content a"), Fingerprint("content b"))
}

func TestRecordAndCheckStuck(t *testing.T) {
	m := New()

	require.False(t, m.RecordAndCheckStuck("attempt one"))
	require.False(t, m.RecordAndCheckStuck("attempt two"))
	require.True(t, m.RecordAndCheckStuck("attempt two"))
	require.False(t, m.RecordAndCheckStuck("attempt three"))
}
