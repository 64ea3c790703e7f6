package model

import "time"

// Gate is one validation command that must pass for a phase to be
// considered complete.
type Gate struct {
	Name     string
	Command  string
	Blocking bool
}

// Task is one checklist item inside a phase's Tasks section.
type Task struct {
	ID          string
	Description string
	Completed   bool
}

// Phase is a single unit of work in a master plan, parsed from its own
// markdown file.
type Phase struct {
	ID    string
	Title string
	Path  string

	Status PhaseStatus

	DependsOn []string

	Gates []Gate
	Tasks []Task

	RequiredAgents []string
	RequiredSteps  []string

	NotesInput  string
	NotesOutput string
}

// MasterPlan is the top-level plan document referencing an ordered list of
// phases.
type MasterPlan struct {
	Name string
	Path string

	Phases []Phase

	GitHubIssues string
	GitHubRepo   string
	JiraIssues   string

	CreatedAt time.Time
}

// Canonical required-step names recognized by the Plan Parser and
// Compliance Checker. Order matches the Process Wrapper's own ordering.
const (
	StepReadPreviousNotes = "read_previous_notes"
	StepDocSyncManager    = "doc_sync_manager"
	StepImplementation    = "implementation"
	StepPreValidation     = "pre_validation"
	StepTaskValidator     = "task_validator"
	StepWriteNotes        = "write_notes"
)
