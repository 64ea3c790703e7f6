package compliance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/model"
)

func fullPhase() model.Phase {
	return model.Phase{
		ID:             "1",
		RequiredAgents: []string{"task-validator"},
		RequiredSteps:  []string{model.StepImplementation, model.StepWriteNotes},
		NotesOutput:    "notes/phase-1.md",
	}
}

func validNotes() string {
	return "## Summary\nDid stuff.\n\n## Key Decisions\nNone.\n\n## Files Modified\nfoo.go\n"
}

func TestVerifyCompletionPasses(t *testing.T) {
	phase := fullPhase()
	sessionLog := `{"subagent_type": "task-validator"} implement the thing, then wrote NOTES_phase_1.md`
	gates := []model.GateResult{{Name: "pytest", Passed: true}}

	c := New()
	result := c.VerifyCompletion(phase, sessionLog, validNotes(), gates, nil)

	require.True(t, result.Passed)
	require.Empty(t, result.Issues)
	require.Empty(t, result.Remediation)
	require.Contains(t, result.VerifiedSteps, model.StepWriteNotes)
	require.Contains(t, result.VerifiedSteps, "invoke_required_agents")
}

func TestVerifyCompletionMissingAgentIsCritical(t *testing.T) {
	phase := fullPhase()
	c := New()
	result := c.VerifyCompletion(phase, "implement the thing, then wrote NOTES_phase_1.md", validNotes(), nil, nil)

	require.False(t, result.Passed)
	require.Len(t, result.Issues, 1)
	require.Equal(t, model.IssueAgentSkipped, result.Issues[0].Type)
	require.Equal(t, model.SeverityCritical, result.Issues[0].Severity)
	require.Equal(t, model.RemediationTargetedFix, result.Remediation)
}

func TestVerifyCompletionAgentClaimedButNoLogEvidenceIsHigh(t *testing.T) {
	phase := fullPhase()
	report := map[string]any{"agents_used": []any{"task-validator"}}
	c := New()
	result := c.VerifyCompletion(phase, "implement the thing, then wrote NOTES_phase_1.md", validNotes(), nil, report)

	require.False(t, result.Passed)
	require.Len(t, result.Issues, 1)
	require.Equal(t, model.IssueAgentSkipped, result.Issues[0].Type)
	require.Equal(t, model.SeverityHigh, result.Issues[0].Severity)
	require.Equal(t, model.RemediationWarnAndAccept, result.Remediation)
}

func TestVerifyCompletionAgentMentionedViaTaskBannerClears(t *testing.T) {
	phase := fullPhase()
	sessionLog := "launching task-validator now\nimplement the thing, then wrote NOTES_phase_1.md"
	c := New()
	result := c.VerifyCompletion(phase, sessionLog, validNotes(), nil, nil)

	require.True(t, result.Passed)
}

func TestVerifyCompletionMissingNotes(t *testing.T) {
	phase := fullPhase()
	sessionLog := `{"subagent_type": "task-validator"} implement the thing, then wrote NOTES_phase_1.md`
	c := New()
	result := c.VerifyCompletion(phase, sessionLog, "", nil, nil)

	require.False(t, result.Passed)
	var found bool
	for _, issue := range result.Issues {
		if issue.Type == model.IssueNotesMissing {
			found = true
			require.Equal(t, model.SeverityHigh, issue.Severity)
		}
	}
	require.True(t, found, "expected a notes_missing issue")
	require.Equal(t, model.RemediationWarnAndAccept, result.Remediation)
}

func TestVerifyCompletionIncompleteNotes(t *testing.T) {
	phase := fullPhase()
	sessionLog := `{"subagent_type": "task-validator"} implement the thing, then wrote NOTES_phase_1.md`
	c := New()
	result := c.VerifyCompletion(phase, sessionLog, "## Summary\nDid stuff.\n", nil, nil)

	require.False(t, result.Passed)
	require.Len(t, result.Issues, 1)
	require.Equal(t, model.IssueNotesIncomplete, result.Issues[0].Type)
	require.Equal(t, model.SeverityLow, result.Issues[0].Severity)
	require.Contains(t, result.Issues[0].Details, "Key Decisions")
	require.Contains(t, result.Issues[0].Details, "Files Modified")
	require.Equal(t, model.RemediationWarnAndAccept, result.Remediation)
}

func TestVerifyCompletionGateFailureIsCritical(t *testing.T) {
	phase := fullPhase()
	sessionLog := `{"subagent_type": "task-validator"} implement the thing, then wrote NOTES_phase_1.md`
	gates := []model.GateResult{{Name: "pytest", Passed: false, Output: "2 failed"}}
	c := New()
	result := c.VerifyCompletion(phase, sessionLog, validNotes(), gates, nil)

	require.False(t, result.Passed)
	require.Equal(t, model.IssueGatesFailed, result.Issues[0].Type)
	require.Equal(t, "2 failed", result.Issues[0].Evidence)
}

func TestVerifyCompletionRequiredStepClaimedWithoutLogEvidenceClears(t *testing.T) {
	phase := fullPhase()
	report := map[string]any{"steps_completed": []any{model.StepImplementation, model.StepWriteNotes}}
	c := New()
	result := c.VerifyCompletion(phase, `{"subagent_type": "task-validator"}`, validNotes(), nil, report)

	require.True(t, result.Passed)
}

func TestVerifyCompletionUnknownStepFallsBackToLiteralNameSearch(t *testing.T) {
	phase := model.Phase{RequiredSteps: []string{"custom-review"}}
	c := New()

	missing := c.VerifyCompletion(phase, "nothing relevant here", "", nil, nil)
	require.False(t, missing.Passed)
	require.Equal(t, model.IssueStepSkipped, missing.Issues[0].Type)

	present := c.VerifyCompletion(phase, "ran a custom-review pass", "", nil, nil)
	require.True(t, present.Passed)
}

func TestDetermineRemediation(t *testing.T) {
	tests := []struct {
		name   string
		issues []model.ComplianceIssue
		want   model.RemediationStrategy
	}{
		{"none", nil, ""},
		{
			"two critical triggers full retry",
			[]model.ComplianceIssue{{Severity: model.SeverityCritical}, {Severity: model.SeverityCritical}},
			model.RemediationFullRetry,
		},
		{
			"one critical triggers targeted fix",
			[]model.ComplianceIssue{{Severity: model.SeverityCritical}},
			model.RemediationTargetedFix,
		},
		{
			"two high triggers targeted fix",
			[]model.ComplianceIssue{{Severity: model.SeverityHigh}, {Severity: model.SeverityHigh}},
			model.RemediationTargetedFix,
		},
		{
			"one high is warn and accept",
			[]model.ComplianceIssue{{Severity: model.SeverityHigh}},
			model.RemediationWarnAndAccept,
		},
		{
			"low only is warn and accept",
			[]model.ComplianceIssue{{Severity: model.SeverityLow}},
			model.RemediationWarnAndAccept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := determineRemediation(tt.issues)
			require.Equal(t, tt.want, got)
		})
	}
}
