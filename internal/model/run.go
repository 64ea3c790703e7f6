package model

import "time"

// Run is one orchestration run over a master plan.
type Run struct {
	ID             string
	MasterPlanPath string
	StartedAt      time.Time
	CompletedAt    *time.Time
	Status         RunStatus
	CurrentPhase   string

	PhaseExecutions []PhaseExecution
}

// PhaseExecution is one attempt at executing a single phase within a run.
type PhaseExecution struct {
	ID           int64
	RunID        string
	PhaseID      string
	Attempt      int
	Status       PhaseStatus
	StartedAt    *time.Time
	CompletedAt  *time.Time
	WorkerPID    *int
	LogPath      string
	ErrorMessage string
}

// GateResult is the outcome of running one validation gate.
type GateResult struct {
	Name       string
	Command    string
	Passed     bool
	Output     string
	ExecutedAt time.Time
}

// CompletionSignal is what a worker reports via `orc done` at the end of
// a phase.
type CompletionSignal struct {
	PhaseID    string
	Status     string // completed, blocked, failed
	Reason     string
	Report     map[string]any
	SignaledAt time.Time
}

// ProgressEntry is one breadcrumb logged via `orc progress` during a
// phase's execution, used for stuck-loop detection.
type ProgressEntry struct {
	Step     string
	LoggedAt time.Time
}

// ComplianceIssue is a single defect found while verifying phase
// completion.
type ComplianceIssue struct {
	Type     ComplianceIssueType
	Severity Severity
	Details  string
	Evidence string
}

// ComplianceResult is the outcome of verifying a phase's completion.
type ComplianceResult struct {
	Passed        bool
	Issues        []ComplianceIssue
	Remediation   RemediationStrategy
	VerifiedSteps []string
	GateResults   []GateResult
}

// AuditIssue is a single defect found while auditing a plan's structure.
type AuditIssue struct {
	Severity AuditSeverity
	Code     string
	Message  string
	Location string
}

// AuditSummary is aggregate counts from a plan audit.
type AuditSummary struct {
	MasterPlan  string
	PhasesFound int
	PhasesValid int
	GatesTotal  int
	Errors      int
	Warnings    int
}

// AuditResult is the outcome of auditing a master plan.
type AuditResult struct {
	Passed  bool
	Issues  []AuditIssue
	Summary AuditSummary
}
