// Package compliance verifies that a phase's completion signal is
// backed by real evidence in its session log: required agents actually
// invoked, required steps actually performed, notes actually written
// with the expected sections, and gates actually passing.
package compliance

import (
	"regexp"
	"strings"

	"github.com/arcflow-dev/orc/internal/model"
)

// RequiredNotesSections are the headings every phase's notes output
// must contain to count as complete.
var RequiredNotesSections = []string{"## Summary", "## Key Decisions", "## Files Modified"}

// Checker verifies phase completion against a session's raw log.
type Checker struct{}

func New() *Checker { return &Checker{} }

// VerifyCompletion runs all checks for a single phase attempt and
// decides what remediation, if any, is warranted. report is the
// worker's self-reported completion report (from `orc done --report`,
// the model.CompletionSignal.Report field) — it is never trusted on
// its own; every claim it makes is cross-checked against sessionLog.
func (c *Checker) VerifyCompletion(
	phase model.Phase,
	sessionLog string,
	notesContent string,
	gateResults []model.GateResult,
	report map[string]any,
) model.ComplianceResult {
	var issues []model.ComplianceIssue
	var verifiedSteps []string

	issues = append(issues, checkGates(gateResults)...)

	notesIssues := checkNotes(phase, notesContent)
	issues = append(issues, notesIssues...)
	if len(notesIssues) == 0 && phase.NotesOutput != "" {
		verifiedSteps = append(verifiedSteps, model.StepWriteNotes)
	}

	claimedAgents := stringSliceFromReport(report, "agents_used")
	agentIssues, agentsClean := checkRequiredAgents(phase, sessionLog, claimedAgents)
	issues = append(issues, agentIssues...)
	if agentsClean && len(phase.RequiredAgents) > 0 {
		verifiedSteps = append(verifiedSteps, "invoke_required_agents")
	}

	claimedSteps := stringSliceFromReport(report, "steps_completed")
	issues = append(issues, checkRequiredSteps(phase, sessionLog, claimedSteps)...)

	remediation := determineRemediation(issues)

	return model.ComplianceResult{
		Passed:        len(issues) == 0,
		Issues:        issues,
		Remediation:   remediation,
		VerifiedSteps: verifiedSteps,
		GateResults:   gateResults,
	}
}

// stringSliceFromReport pulls a []string out of a decoded-JSON
// map[string]any report field, tolerating a missing key or a non-array
// value the way the original Python implementation does (best-effort,
// never an error).
func stringSliceFromReport(report map[string]any, key string) []string {
	raw, ok := report[key]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// agentEvidenceTemplates are the three regex shapes a required agent's
// invocation can show up as in a raw session log: a JSON subagent_type
// field, a Task tool call followed anywhere later by the agent name, or
// a "launching ... <agent>" phrase in the log text.
var agentEvidenceTemplates = []string{
	`subagent_type["\s:=]+%s`,
	`Task.*%s`,
	`launching.*%s`,
}

func agentHasLogEvidence(agent, sessionLog string) bool {
	for _, tmpl := range agentEvidenceTemplates {
		pattern := regexp.MustCompile(`(?is)` + replaceAgent(tmpl, agent))
		if pattern.MatchString(sessionLog) {
			return true
		}
	}
	return false
}

func replaceAgent(tmpl, agent string) string {
	return strings.Replace(tmpl, "%s", regexp.QuoteMeta(agent), 1)
}

// checkRequiredAgents cross-checks each required agent against both the
// raw session log and the worker's self-reported agents_used claim. An
// agent found in the log is cleared regardless of whether it was
// claimed. An agent neither found nor claimed is a critical skip; one
// claimed but absent from the log is a high-severity suspicious claim,
// since the worker's own report is never trusted on its own.
func checkRequiredAgents(phase model.Phase, sessionLog string, claimedAgents []string) ([]model.ComplianceIssue, bool) {
	var issues []model.ComplianceIssue
	for _, agent := range phase.RequiredAgents {
		foundInLog := agentHasLogEvidence(agent, sessionLog)
		claimed := containsString(claimedAgents, agent)

		switch {
		case !foundInLog && !claimed:
			issues = append(issues, model.ComplianceIssue{
				Type:     model.IssueAgentSkipped,
				Severity: model.SeverityCritical,
				Details:  "required agent " + agent + " was never invoked via the Task tool",
			})
		case claimed && !foundInLog:
			issues = append(issues, model.ComplianceIssue{
				Type:     model.IssueAgentSkipped,
				Severity: model.SeverityHigh,
				Details:  "agent " + agent + " claimed in completion report but no evidence in session log",
			})
		}
	}
	return issues, len(issues) == 0
}

// stepEvidencePatterns is the fixed lookup table of log patterns for
// each canonical required-step name. A step name absent from this table
// falls back to a literal search for the step name itself.
var stepEvidencePatterns = map[string][]string{
	model.StepReadPreviousNotes: {`Read.*notes`, `previous.*notes`},
	model.StepDocSyncManager:    {`doc-sync-manager`, `sync.*ACTIVE`},
	model.StepImplementation:    {`implement`, `task.*\d+\.\d+`},
	model.StepPreValidation:     {`ruff|pyright|bandit|pytest`, `validation`},
	model.StepTaskValidator:     {`task-validator`, `validator`},
	model.StepWriteNotes:        {`Write.*notes`, `NOTES_`},
}

func stepHasLogEvidence(step, sessionLog string) bool {
	patterns, ok := stepEvidencePatterns[step]
	if !ok {
		patterns = []string{regexp.QuoteMeta(step)}
	}
	for _, p := range patterns {
		if regexp.MustCompile(`(?i)` + p).MatchString(sessionLog) {
			return true
		}
	}
	return false
}

// checkRequiredSteps checks each required step against the worker's
// self-reported steps_completed claim OR log-pattern evidence; a step
// neither claimed nor found in the log is a high-severity skip.
func checkRequiredSteps(phase model.Phase, sessionLog string, claimedSteps []string) []model.ComplianceIssue {
	var issues []model.ComplianceIssue
	for _, step := range phase.RequiredSteps {
		if containsString(claimedSteps, step) || stepHasLogEvidence(step, sessionLog) {
			continue
		}
		issues = append(issues, model.ComplianceIssue{
			Type:     model.IssueStepSkipped,
			Severity: model.SeverityHigh,
			Details:  "required step " + step + " has no evidence in the session log",
		})
	}
	return issues
}

// checkNotes is skipped entirely when the phase declares no
// NotesOutput. Otherwise a missing file is high severity and missing
// sections (file present, incomplete) is low severity.
func checkNotes(phase model.Phase, notesContent string) []model.ComplianceIssue {
	if phase.NotesOutput == "" {
		return nil
	}
	if strings.TrimSpace(notesContent) == "" {
		return []model.ComplianceIssue{{
			Type:     model.IssueNotesMissing,
			Severity: model.SeverityHigh,
			Details:  "notes output file is missing or empty: " + phase.NotesOutput,
		}}
	}

	var missing []string
	for _, section := range RequiredNotesSections {
		if !strings.Contains(notesContent, section) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return []model.ComplianceIssue{{
			Type:     model.IssueNotesIncomplete,
			Severity: model.SeverityLow,
			Details:  "notes missing sections: " + strings.Join(missing, ", "),
			Evidence: phase.NotesOutput,
		}}
	}
	return nil
}

func checkGates(gateResults []model.GateResult) []model.ComplianceIssue {
	var issues []model.ComplianceIssue
	for _, g := range gateResults {
		if !g.Passed {
			output := g.Output
			if len(output) > 500 {
				output = output[:500]
			}
			issues = append(issues, model.ComplianceIssue{
				Type:     model.IssueGatesFailed,
				Severity: model.SeverityCritical,
				Details:  "gate " + g.Name + " did not pass",
				Evidence: output,
			})
		}
	}
	return issues
}

// determineRemediation picks a remediation strategy from the severity
// mix of issues found: two or more critical issues warrant a full
// retry from scratch, one critical (or two or more high) issues
// warrant a targeted fix, and anything milder is accepted with a
// warning.
func determineRemediation(issues []model.ComplianceIssue) model.RemediationStrategy {
	if len(issues) == 0 {
		return ""
	}

	critical, high := 0, 0
	for _, issue := range issues {
		switch issue.Severity {
		case model.SeverityCritical:
			critical++
		case model.SeverityHigh:
			high++
		}
	}

	switch {
	case critical >= 2:
		return model.RemediationFullRetry
	case critical == 1 || high >= 2:
		return model.RemediationTargetedFix
	default:
		return model.RemediationWarnAndAccept
	}
}
