// Package orchestrator is the top-level state machine that composes
// every other component into a full orchestration run: an outer run
// loop over phases, an attempt loop per phase driving compliance-based
// remediation, and a restart loop per attempt driving context-budget
// cooperative restarts.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arcflow-dev/orc/internal/audit"
	"github.com/arcflow-dev/orc/internal/budget"
	"github.com/arcflow-dev/orc/internal/checkpoint"
	"github.com/arcflow-dev/orc/internal/collab"
	"github.com/arcflow-dev/orc/internal/collab/github"
	"github.com/arcflow-dev/orc/internal/collab/jira"
	"github.com/arcflow-dev/orc/internal/compliance"
	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/display"
	"github.com/arcflow-dev/orc/internal/gates"
	"github.com/arcflow-dev/orc/internal/gitutil"
	"github.com/arcflow-dev/orc/internal/model"
	"github.com/arcflow-dev/orc/internal/notify"
	"github.com/arcflow-dev/orc/internal/planparser"
	"github.com/arcflow-dev/orc/internal/statestore"
	"github.com/arcflow-dev/orc/internal/streamparse"
	"github.com/arcflow-dev/orc/internal/utils"
	"github.com/arcflow-dev/orc/internal/worker"
)

// Orchestrator coordinates phase execution for a single master plan.
type Orchestrator struct {
	ProjectRoot string
	Config      *config.Config
	Store       *statestore.Store
	Notifier    notify.Notifier
	Display     *display.Display

	gates   *gates.Runner
	checker *compliance.Checker
	auditor *audit.Auditor

	plan           *model.MasterPlan
	masterPlanPath string

	github *github.Syncer
	jira   *jira.Syncer
}

// New builds an Orchestrator rooted at projectRoot, backed by store for
// durable state.
func New(projectRoot string, cfg *config.Config, store *statestore.Store, notifier notify.Notifier, disp *display.Display) *Orchestrator {
	return &Orchestrator{
		ProjectRoot: projectRoot,
		Config:      cfg,
		Store:       store,
		Notifier:    notifier,
		Display:     disp,
		gates:       gates.New(projectRoot),
		checker:     compliance.New(),
		auditor:     audit.New(),
	}
}

// RunOptions configures a single call to Run.
type RunOptions struct {
	StartPhase string
	SkipPhases map[string]bool
}

// LoadPlan parses the master plan and enriches each phase with its own
// parsed phase document (gates, tasks, required agents/steps, notes
// paths), matching the ground-truth orchestrator's load_plan.
func (o *Orchestrator) LoadPlan(masterPlanPath string) (*model.MasterPlan, error) {
	plan, err := planparser.ParseMasterPlan(masterPlanPath)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	for i, phase := range plan.Phases {
		if _, statErr := os.Stat(phase.Path); statErr != nil {
			continue
		}
		detailed, err := planparser.ParsePhase(phase.Path, phase.ID)
		if err != nil {
			continue
		}
		if len(detailed.DependsOn) > 0 {
			phase.DependsOn = detailed.DependsOn
		}
		phase.Gates = detailed.Gates
		phase.Tasks = detailed.Tasks
		phase.RequiredAgents = detailed.RequiredAgents
		phase.RequiredSteps = detailed.RequiredSteps
		phase.NotesInput = detailed.NotesInput
		phase.NotesOutput = detailed.NotesOutput
		plan.Phases[i] = phase
	}

	o.plan = plan
	o.masterPlanPath = masterPlanPath
	return plan, nil
}

// Plan returns the most recently loaded master plan, or nil.
func (o *Orchestrator) Plan() *model.MasterPlan { return o.plan }

// Run executes the run loop: audits the plan, creates a run, and walks
// every phase in order, skipping what the state store already knows is
// complete, deferring phases whose dependencies aren't yet met, and
// stopping the whole run the first time a phase cannot be completed.
func (o *Orchestrator) Run(ctx context.Context, masterPlanPath string, opts RunOptions) (string, error) {
	if o.plan == nil || o.masterPlanPath != masterPlanPath {
		if _, err := o.LoadPlan(masterPlanPath); err != nil {
			return "", err
		}
	}

	auditResult := o.auditor.Audit(masterPlanPath)
	if !auditResult.Passed {
		return "", fmt.Errorf("plan failed audit (%d error(s)): %s",
			auditResult.Summary.Errors, firstAuditIssue(auditResult))
	}

	// Looked up before this run is created, so the lookup cannot return
	// the new, still-empty run itself.
	resumable, _ := o.Store.FindResumableRun(ctx, masterPlanPath)

	run, err := o.Store.CreateRun(ctx, masterPlanPath)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	runID := run.ID

	notify.Info(o.Notifier, "Orchestration Started", fmt.Sprintf("Run ID: %s, Plan: %s", runID, o.plan.Name))
	if o.Display != nil {
		o.Display.RunStart(o.plan.Name, len(o.plan.Phases))
	}

	o.initGitHubSync(ctx)
	o.initJiraSync()
	defer func() { o.github = nil; o.jira = nil }()

	skip := map[string]bool{}
	for id := range opts.SkipPhases {
		skip[id] = true
	}
	if existing := resumable; existing != nil {
		if completed, err := o.Store.GetCompletedPhases(ctx, existing.ID); err == nil {
			for id := range completed {
				skip[id] = true
			}
		}
	}

	phases := o.plan.Phases
	if opts.StartPhase != "" {
		for i, p := range phases {
			if p.ID == opts.StartPhase {
				phases = phases[i:]
				break
			}
		}
	}

	deferred := map[string]bool{}
	completedCount := 0

	for idx := 0; idx < len(phases); idx++ {
		phase := phases[idx]

		if ctx.Err() != nil {
			_ = o.Store.UpdateRunStatus(context.WithoutCancel(ctx), runID, model.RunStatusPaused)
			notify.Warning(o.Notifier, "Orchestration Paused", fmt.Sprintf("interrupted before phase %s", phase.ID))
			return runID, ctx.Err()
		}

		if skip[phase.ID] || phase.Status == model.PhaseStatusCompleted {
			o.markPhaseCompletedInMemory(phase.ID)
			completedCount++
			continue
		}

		if !o.dependenciesMet(phase) {
			if deferred[phase.ID] {
				notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Blocked", phase.ID), "dependencies never became available")
				_, _ = o.Store.CreatePhaseExecution(ctx, runID, phase.ID, 1)
				_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusBlocked, "dependencies not met")
				_ = o.Store.UpdateRunStatus(ctx, runID, model.RunStatusFailed)
				return runID, fmt.Errorf("phase %s blocked: dependencies not met", phase.ID)
			}
			deferred[phase.ID] = true
			phases = append(phases, phase)
			continue
		}

		if clean, trackedCount, _ := gitutil.CheckWorkingDirectory(ctx, o.ProjectRoot); !clean {
			notify.Warning(o.Notifier, "Working Directory Dirty",
				fmt.Sprintf("%d tracked file(s) modified before phase %s", trackedCount, phase.ID))
		}

		if o.Display != nil {
			o.Display.PhaseBanner(phase.ID, phase.Title, idx+1, len(o.plan.Phases))
		}
		_ = o.Store.SetCurrentPhase(ctx, runID, phase.ID)
		o.syncPhaseStart(ctx, phase)

		ok, err := o.executePhaseWithCompliance(ctx, runID, phase)
		if ctx.Err() != nil {
			_ = o.Store.UpdateRunStatus(context.WithoutCancel(ctx), runID, model.RunStatusPaused)
			notify.Warning(o.Notifier, "Orchestration Paused", fmt.Sprintf("interrupted during phase %s", phase.ID))
			return runID, ctx.Err()
		}
		if err != nil {
			_ = o.Store.UpdateRunStatus(ctx, runID, model.RunStatusFailed)
			return runID, err
		}
		if !ok {
			_ = o.Store.UpdateRunStatus(ctx, runID, model.RunStatusFailed)
			if o.Display != nil {
				o.Display.RunFailed(phase.ID, nil)
			}
			return runID, nil
		}

		o.markPhaseCompletedInMemory(phase.ID)
		completedCount++
	}

	_ = o.Store.UpdateRunStatus(ctx, runID, model.RunStatusCompleted)
	notify.Success(o.Notifier, "Orchestration Completed", "All phases completed successfully")
	if o.Display != nil {
		o.Display.RunComplete(completedCount)
	}
	return runID, nil
}

// Resume re-enters the run loop at the most recent running/paused run's
// current phase, with the skip set computed from the state store.
func (o *Orchestrator) Resume(ctx context.Context) (string, error) {
	run, err := o.Store.GetCurrentRun(ctx)
	if err != nil {
		return "", fmt.Errorf("find resumable run: %w", err)
	}
	if run == nil {
		return "", fmt.Errorf("no running or paused run to resume")
	}
	return o.Run(ctx, run.MasterPlanPath, RunOptions{StartPhase: run.CurrentPhase})
}

func (o *Orchestrator) markPhaseCompletedInMemory(phaseID string) {
	for i := range o.plan.Phases {
		if o.plan.Phases[i].ID == phaseID {
			o.plan.Phases[i].Status = model.PhaseStatusCompleted
		}
	}
}

func (o *Orchestrator) dependenciesMet(phase model.Phase) bool {
	for _, depID := range phase.DependsOn {
		dep, ok := o.findPhase(depID)
		if !ok {
			continue
		}
		if dep.Status != model.PhaseStatusCompleted {
			return false
		}
	}
	return true
}

func (o *Orchestrator) findPhase(id string) (model.Phase, bool) {
	for _, p := range o.plan.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return model.Phase{}, false
}

func firstAuditIssue(result model.AuditResult) string {
	for _, issue := range result.Issues {
		if issue.Severity == model.AuditSeverityError {
			return fmt.Sprintf("%s: %s", issue.Code, issue.Message)
		}
	}
	return "unknown audit failure"
}

// readNotesOutput resolves a phase's notes-output path, which may be a
// literal file or a doublestar glob (e.g. "notes/NOTES_*_phase_1.md")
// when the worker is left to pick its own descriptive filename. The
// most recently modified match wins.
func readNotesOutput(projectRoot, pattern string) string {
	if pattern == "" {
		return ""
	}
	full := pattern
	if !filepath.IsAbs(full) {
		full = filepath.Join(projectRoot, pattern)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		data, err := os.ReadFile(full)
		if err != nil {
			return ""
		}
		return string(data)
	}

	matches, err := doublestar.FilepathGlob(full)
	if err != nil || len(matches) == 0 {
		return ""
	}
	best := matches[0]
	bestTime := modTimeOf(best)
	for _, m := range matches[1:] {
		if t := modTimeOf(m); t.After(bestTime) {
			best, bestTime = m, t
		}
	}
	data, err := os.ReadFile(best)
	if err != nil {
		return ""
	}
	return string(data)
}

func modTimeOf(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// executePhaseWithCompliance is the attempt loop: it runs up to
// cfg.MaxRetries+1 attempts of the restart loop, verifying compliance
// after each and branching on the resulting remediation strategy.
func (o *Orchestrator) executePhaseWithCompliance(ctx context.Context, runID string, phase model.Phase) (bool, error) {
	maxAttempts := o.Config.MaxRetries + 1
	isRemediation := false
	var previousIssues []model.ComplianceIssue
	cm := checkpoint.New()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err := o.Store.CreatePhaseExecution(ctx, runID, phase.ID, attempt); err != nil {
			return false, fmt.Errorf("create phase execution: %w", err)
		}
		_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusRunning, "")

		notify.Info(o.Notifier, fmt.Sprintf("Phase %s: %s", phase.ID, phase.Title),
			fmt.Sprintf("Attempt %d/%d", attempt, maxAttempts))

		var prompt string
		if isRemediation {
			prompt = worker.BuildRemediationPrompt(phase, previousIssues)
		}

		result, err := o.executePhaseWithRestarts(ctx, runID, phase, prompt, isRemediation, cm)
		if err != nil {
			return false, err
		}

		if !result.Success {
			errMsg := result.SessionLog
			if len(errMsg) > 500 {
				errMsg = errMsg[:500]
			}
			_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusFailed, errMsg)
			notify.Error(o.Notifier, fmt.Sprintf("Phase %s Execution Failed", phase.ID),
				fmt.Sprintf("Exit code: %d", result.ExitCode))
			return false, nil
		}

		_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusValidating, "")

		gateResults := o.gates.RunGates(ctx, phase.Gates)
		for _, gr := range gateResults {
			_ = o.Store.RecordGateResult(ctx, runID, phase.ID, gr)
		}

		notesContent := readNotesOutput(o.ProjectRoot, phase.NotesOutput)

		var report map[string]any
		if signal, err := o.Store.GetCompletionSignal(ctx, runID, phase.ID); err == nil && signal != nil {
			report = signal.Report
		}

		complianceResult := o.checker.VerifyCompletion(phase, result.SessionLog, notesContent, gateResults, report)

		if complianceResult.Passed {
			_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusCompleted, "")
			notify.Success(o.Notifier, fmt.Sprintf("Phase %s Completed", phase.ID), "All compliance checks passed")
			o.syncPhaseComplete(ctx, phase, notesContent)
			o.autoCommitPhase(ctx, phase, true)
			return true, nil
		}

		previousIssues = complianceResult.Issues
		issuesSummary := summarizeIssues(complianceResult.Issues)

		switch complianceResult.Remediation {
		case model.RemediationWarnAndAccept:
			notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Completed with Warnings", phase.ID), issuesSummary)
			_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusCompleted, "")
			o.syncPhaseComplete(ctx, phase, notesContent)
			o.autoCommitPhase(ctx, phase, true)
			return true, nil

		case model.RemediationTargetedFix:
			isRemediation = true
			notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Compliance Failed", phase.ID),
				fmt.Sprintf("Attempt %d/%d: %s", attempt, maxAttempts, issuesSummary))

		case model.RemediationFullRetry:
			isRemediation = false
			notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Compliance Failed", phase.ID),
				fmt.Sprintf("Attempt %d/%d: %s (restarting from scratch)", attempt, maxAttempts, issuesSummary))

		case model.RemediationHumanRequired:
			_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusAwaitingHuman, "")
			notify.Alert(o.Notifier, fmt.Sprintf("Phase %s Needs Human Intervention", phase.ID), issuesSummary)
			return false, nil

		default:
			isRemediation = true
		}
	}

	_ = o.Store.UpdatePhaseStatus(ctx, runID, phase.ID, model.PhaseStatusFailed,
		fmt.Sprintf("failed after %d attempts", maxAttempts))
	notify.Error(o.Notifier, fmt.Sprintf("Phase %s Failed", phase.ID),
		fmt.Sprintf("Max attempts (%d) reached", maxAttempts))
	o.syncPhaseFailed(ctx, phase)
	o.autoCommitPhase(ctx, phase, false)
	return false, nil
}

func summarizeIssues(issues []model.ComplianceIssue) string {
	var parts []string
	for i, issue := range issues {
		if i >= 3 {
			break
		}
		parts = append(parts, issue.Details)
	}
	return strings.Join(parts, ", ")
}

// executePhaseWithRestarts is the restart loop: it runs up to
// cfg.MaxRestarts+1 worker sessions for a single attempt, restarting
// with a checkpoint-prefixed prompt whenever the worker cooperatively
// stops on a context-budget limit.
func (o *Orchestrator) executePhaseWithRestarts(
	ctx context.Context,
	runID string,
	phase model.Phase,
	prompt string,
	isRemediation bool,
	cm *checkpoint.Manager,
) (*worker.ExecutionResult, error) {
	maxRestarts := o.Config.MaxRestarts
	restartEnabled := o.Config.ContextThreshold < 100.0 && maxRestarts > 0 && !isRemediation
	restartCount := 0

	effectivePrompt := prompt
	if effectivePrompt == "" {
		effectivePrompt = worker.BuildPhasePrompt(phase, runID)
	}

	for {
		estimator := budget.New(budget.Thresholds{
			ContextPercent: o.Config.ContextThreshold,
			ToolCallCount:  o.Config.ToolCallThreshold,
		})

		workCtx, stop := context.WithCancel(ctx)

		callbacks := streamparse.Callbacks{
			OnText: func(text string, newline bool) {
				if o.Display != nil {
					o.Display.Worker(text, 0)
				}
			},
			OnToolUse: func(tu streamparse.ToolUse) {
				if !restartEnabled {
					return
				}
				estimator.RecordToolUse()
				if estimator.ShouldRestart() {
					stop()
				}
			},
			OnTokenStats: func(stats streamparse.TokenStats) {
				if !restartEnabled {
					return
				}
				estimator.RecordTokenStats(stats)
				if estimator.ShouldRestart() {
					stop()
				}
			},
		}

		runner := worker.New(worker.Options{
			ProjectRoot:   o.ProjectRoot,
			Model:         o.Config.Model,
			Timeout:       time.Duration(o.Config.Timeout) * time.Second,
			SessionLogDir: o.sessionLogDir(runID, phase),
			Callbacks:     callbacks,
		})

		result, err := runner.ExecutePhase(workCtx, effectivePrompt)
		stop()
		if err != nil {
			return nil, fmt.Errorf("execute phase %s: %w", phase.ID, err)
		}

		if !restartEnabled || !strings.HasPrefix(result.SessionLog, checkpoint.Sentinel) {
			return result, nil
		}

		if restartCount >= maxRestarts {
			notify.Error(o.Notifier, fmt.Sprintf("Phase %s Failed", phase.ID),
				fmt.Sprintf("Max restarts (%d) exceeded - phase may be too complex", maxRestarts))
			return &worker.ExecutionResult{
				Success:    false,
				SessionLog: fmt.Sprintf("Max restarts (%d) exceeded", maxRestarts),
				ExitCode:   -3,
			}, nil
		}
		restartCount++

		o.autoCommitPhase(ctx, phase, false)

		entries, _ := o.Store.GetProgress(ctx, runID, phase.ID)
		summary := checkpoint.Summarize(entries)
		if cm.RecordAndCheckStuck(summary) {
			notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Restart Stalled", phase.ID),
				"progress breadcrumbs did not change since the last restart")
		}
		effectivePrompt = worker.BuildCheckpointRestartPrompt(phase, summary)

		notify.Warning(o.Notifier, fmt.Sprintf("Phase %s Restarting", phase.ID),
			fmt.Sprintf("Context limit reached, attempt %d/%d", restartCount, maxRestarts))
		if o.Display != nil {
			o.Display.Warning(fmt.Sprintf("restarting phase %s (attempt %d/%d)...", phase.ID, restartCount, maxRestarts))
		}
	}
}

// sessionLogDir returns the directory a worker attempt's raw session
// log is mirrored to, named after the run and a slug of the phase.
func (o *Orchestrator) sessionLogDir(runID string, phase model.Phase) string {
	dir, err := config.OrchestratorDir(o.ProjectRoot)
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sessions", runID, utils.Slugify(phase.ID+"-"+phase.Title))
}

// autoCommitPhase stages and commits tracked changes at a phase
// boundary, using the configured commit-message template and the
// trailer gitutil.AutoCommit appends. A commit failure is logged and
// swallowed.
func (o *Orchestrator) autoCommitPhase(ctx context.Context, phase model.Phase, success bool) {
	if !o.Config.AutoCommit {
		return
	}
	if !success && !o.Config.CommitOnFailure {
		return
	}

	clean, trackedCount, _ := gitutil.CheckWorkingDirectory(ctx, o.ProjectRoot)
	if clean || trackedCount == 0 {
		if o.Display != nil {
			o.Display.StatusLine(" ", "no changes to commit")
		}
		return
	}

	statusIcon := "✓"
	if !success {
		statusIcon = "⚠"
	}
	message := gitutil.CommitTemplate(o.Config.CommitMessageTemplate, phase.ID, phase.Title, statusIcon)

	if err := gitutil.AutoCommit(ctx, o.ProjectRoot, message); err != nil {
		if o.Display != nil {
			o.Display.Warning(fmt.Sprintf("auto-commit failed: %v", err))
		}
		return
	}
	if o.Display != nil {
		o.Display.Success(fmt.Sprintf("auto-commit: %s", message))
	}
}

// initGitHubSync sets up the GitHub collaborator hook for this run, if
// enabled and the plan links any issues. A missing repo or failed
// client setup disables sync with a warning rather than failing the run.
func (o *Orchestrator) initGitHubSync(ctx context.Context) {
	if !o.Config.GitHub.Enabled || o.plan == nil || o.plan.GitHubIssues == "" {
		return
	}

	repo := o.plan.GitHubRepo
	if repo == "" {
		repo = gitutil.DetectGitHubRepo(ctx, o.ProjectRoot)
	}
	if repo == "" {
		if o.Display != nil {
			o.Display.Warning("GitHub sync enabled but no repo specified/detected")
		}
		return
	}

	syncer, err := github.New(os.Getenv("GITHUB_TOKEN"), repo, o.Config.GitHub)
	if err != nil {
		if o.Display != nil {
			o.Display.Warning(fmt.Sprintf("GitHub sync init failed: %v", err))
		}
		return
	}
	if err := syncer.EnsureLabels(ctx); err != nil && o.Display != nil {
		o.Display.Warning(fmt.Sprintf("GitHub label setup failed: %v", err))
	}
	o.github = syncer
}

// initJiraSync sets up the Jira collaborator hook for this run, if
// enabled and the plan links any issues.
func (o *Orchestrator) initJiraSync() {
	if !o.Config.Jira.Enabled || o.Config.Jira.BaseURL == "" || o.plan == nil || o.plan.JiraIssues == "" {
		return
	}

	syncer, err := jira.New(o.Config.Jira.BaseURL, os.Getenv("JIRA_EMAIL"), os.Getenv("JIRA_API_TOKEN"), o.Config.Jira)
	if err != nil {
		if o.Display != nil {
			o.Display.Warning(fmt.Sprintf("Jira sync init failed: %v", err))
		}
		return
	}
	o.jira = syncer
}

func (o *Orchestrator) syncPhaseStart(ctx context.Context, phase model.Phase) {
	if o.github != nil {
		for _, num := range github.IssueNumbersFromPlan(*o.plan) {
			if err := o.github.OnPhaseStarted(ctx, num); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("GitHub sync phase start failed: %v", err))
			}
		}
	}
	if o.jira != nil {
		for _, key := range jira.IssueKeysFromPlan(*o.plan) {
			if err := o.jira.OnPhaseStarted(ctx, key); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("Jira sync phase start failed: %v", err))
			}
		}
	}
}

// syncPhaseComplete notifies GitHub/Jira for every issue the master
// plan links plus any additional issue references found in the
// phase's own completion evidence (its notes output) - a
// worker that names the issue it closed in its notes gets that issue
// synced even if the plan-level linkage only lists the epic.
func (o *Orchestrator) syncPhaseComplete(ctx context.Context, phase model.Phase, evidence string) {
	if o.github != nil {
		for _, num := range mergeRefs(github.IssueNumbersFromPlan(*o.plan), collab.ExtractGitHubRefs(evidence)) {
			if err := o.github.OnPhaseCompleted(ctx, num); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("GitHub sync phase complete failed: %v", err))
			}
		}
	}
	if o.jira != nil {
		for _, key := range mergeRefs(jira.IssueKeysFromPlan(*o.plan), collab.ExtractJiraRefs(evidence)) {
			if err := o.jira.OnPhaseCompleted(ctx, key); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("Jira sync phase complete failed: %v", err))
			}
		}
	}
}

// mergeRefs dedupes plan-level issue refs against refs extracted from
// free-text completion evidence.
func mergeRefs(planRefs, extracted []string) []string {
	seen := make(map[string]bool, len(planRefs))
	out := make([]string, 0, len(planRefs)+len(extracted))
	for _, r := range planRefs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, r := range extracted {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func (o *Orchestrator) syncPhaseFailed(ctx context.Context, phase model.Phase) {
	if o.github != nil {
		for _, num := range github.IssueNumbersFromPlan(*o.plan) {
			if err := o.github.OnPhaseFailed(ctx, num); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("GitHub sync phase failed-update failed: %v", err))
			}
		}
	}
	if o.jira != nil {
		for _, key := range jira.IssueKeysFromPlan(*o.plan) {
			if err := o.jira.OnPhaseFailed(ctx, key); err != nil && o.Display != nil {
				o.Display.Warning(fmt.Sprintf("Jira sync phase failed-update failed: %v", err))
			}
		}
	}
}
