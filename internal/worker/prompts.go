package worker

import (
	"fmt"
	"strings"

	"github.com/arcflow-dev/orc/internal/model"
)

// BuildPhasePrompt assembles the prompt sent to the worker for a fresh
// phase attempt: notes continuity, required agents, and the exact
// closing instructions for signaling completion back to orc.
func BuildPhasePrompt(phase model.Phase, runID string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Phase %s: %s\n\n", phase.ID, phase.Title)
	fmt.Fprintf(&b, "Read the phase document at `%s` and execute it fully.\n\n", phase.Path)

	if phase.NotesInput != "" {
		fmt.Fprintf(&b, "## Previous Notes\n\nRead previous notes: `%s`\n\n", phase.NotesInput)
	}

	if len(phase.RequiredAgents) > 0 {
		b.WriteString("## Required Agents\n\n")
		b.WriteString("You MUST invoke the following agents via the Task tool during this phase:\n")
		for _, agent := range phase.RequiredAgents {
			fmt.Fprintf(&b, "- %s\n", agent)
		}
		b.WriteString("\n")
	}

	if phase.NotesOutput != "" {
		fmt.Fprintf(&b, "## Notes Output\n\nBefore finishing, write session notes to `%s`. Include these sections:\n", phase.NotesOutput)
		b.WriteString("- ## Summary\n- ## Key Decisions\n- ## Files Modified\n\n")
	}

	b.WriteString("## Finishing\n\n")
	fmt.Fprintf(&b, "When every task and gate is satisfied, run:\n\n    orc done --phase %s --report '{...}'\n\n", phase.ID)
	fmt.Fprintf(&b, "If you cannot proceed, run instead:\n\n    orc done --phase %s --status blocked --reason \"<why>\"\n", phase.ID)

	return b.String()
}

// issueRemediationAction maps a compliance issue type to the single
// corrective instruction the worker is told to carry out during a
// remediation session.
var issueRemediationAction = map[model.ComplianceIssueType]string{
	model.IssueAgentSkipped:    "Invoke the missing agent(s) via the Task tool before continuing.",
	model.IssueNotesMissing:    "Write the session notes file at the expected path.",
	model.IssueNotesIncomplete: "Complete the missing notes sections (Summary, Key Decisions, Files Modified).",
	model.IssueGatesFailed:     "Fix the failing gate(s) and re-run them until they pass.",
	model.IssueStepSkipped:     "Complete the skipped process step before signaling completion.",
}

// BuildRemediationPrompt builds the prompt for a remediation attempt
// after a phase failed compliance verification, listing each issue
// with its severity and the one corrective action it implies.
func BuildRemediationPrompt(phase model.Phase, issues []model.ComplianceIssue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Remediation Session: Phase %s\n\n", phase.ID)
	b.WriteString("The previous attempt at this phase did not pass compliance verification.\n\n")
	b.WriteString("## Issues Found\n\n")

	for _, issue := range issues {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", issue.Severity, issue.Type, issue.Details)
		action, ok := issueRemediationAction[issue.Type]
		if !ok {
			action = "Review the issue and fix it directly."
		}
		fmt.Fprintf(&b, "  Action: %s\n", action)
	}

	b.WriteString("\nAddress every issue above, then re-run the phase's gates and signal completion as before.\n")
	return b.String()
}

// BuildCheckpointRestartPrompt prefixes a restart prompt with a summary
// of work already done, used when a phase attempt is restarted after
// hitting the context/tool-call budget rather than failing outright.
func BuildCheckpointRestartPrompt(phase model.Phase, checkpointSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Resuming Phase %s: %s\n\n", phase.ID, phase.Title)
	b.WriteString("This phase attempt was restarted after reaching its context budget. ")
	b.WriteString("Work already completed is summarized below — do not redo it.\n\n")
	b.WriteString("## Checkpoint\n\n")
	b.WriteString(checkpointSummary)
	b.WriteString("\n\n---\n\n")
	b.WriteString(BuildPhasePrompt(phase, ""))
	return b.String()
}
