// Package statestore is the single-file relational state store backing
// orc's orchestration runs. It uses a pure-Go SQLite driver so the
// binary stays a single static executable.
package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/arcflow-dev/orc/internal/model"
)

// Store wraps a SQLite connection holding orc's orchestration state.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the state database at path and
// ensures its schema is current.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY contention; orc never needs
	// concurrent writers since only one worker process runs at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func newRunID() string {
	return uuid.New().String()[:8]
}

// CreateRun inserts a new run row and returns its generated ID.
func (s *Store) CreateRun(ctx context.Context, masterPlanPath string) (*model.Run, error) {
	run := &model.Run{
		ID:             newRunID(),
		MasterPlanPath: masterPlanPath,
		StartedAt:      time.Now().UTC(),
		Status:         model.RunStatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, master_plan_path, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.MasterPlanPath, run.StartedAt.Format(time.RFC3339), string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// GetRun fetches a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, master_plan_path, started_at, completed_at, status, current_phase
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// GetCurrentRun returns the most recently started run that is RUNNING or
// PAUSED, or nil if there is none.
func (s *Store) GetCurrentRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, master_plan_path, started_at, completed_at, status, current_phase
		 FROM runs WHERE status IN (?, ?) ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		string(model.RunStatusRunning), string(model.RunStatusPaused))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func scanRun(row *sql.Row) (*model.Run, error) {
	var run model.Run
	var startedAt string
	var completedAt, currentPhase sql.NullString
	var status string

	if err := row.Scan(&run.ID, &run.MasterPlanPath, &startedAt, &completedAt, &status, &currentPhase); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	run.Status = model.RunStatus(status)
	run.CurrentPhase = currentPhase.String
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		run.CompletedAt = &t
	}
	return &run, nil
}

// UpdateRunStatus stamps a run's status, setting completed_at when the
// status is terminal.
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	if status.IsTerminal() {
		_, err := s.db.ExecContext(ctx,
			`UPDATE runs SET status = ?, completed_at = ? WHERE id = ?`,
			string(status), time.Now().UTC().Format(time.RFC3339), runID)
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	return err
}

// SetCurrentPhase records which phase a run is actively working on.
func (s *Store) SetCurrentPhase(ctx context.Context, runID, phaseID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET current_phase = ? WHERE id = ?`, phaseID, runID)
	return err
}

// CreatePhaseExecution inserts a new attempt row for a phase.
func (s *Store) CreatePhaseExecution(ctx context.Context, runID, phaseID string, attempt int) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO phase_executions (run_id, phase_id, attempt, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, phaseID, attempt, string(model.PhaseStatusRunning), now)
	if err != nil {
		return 0, fmt.Errorf("create phase execution: %w", err)
	}
	return res.LastInsertId()
}

// UpdatePhaseStatus updates the status (and, for terminal statuses, the
// completed_at and error_message) of the LATEST phase_execution row for
// the given run+phase — i.e. the row with the maximum id among all
// attempts, never an arbitrary older attempt.
func (s *Store) UpdatePhaseStatus(ctx context.Context, runID, phaseID string, status model.PhaseStatus, errMsg string) error {
	const latest = `SELECT id FROM phase_executions
		WHERE run_id = ? AND phase_id = ?
		ORDER BY id DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, latest, runID, phaseID)
	var id int64
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("find latest phase execution: %w", err)
	}

	if isTerminalPhaseStatus(status) {
		_, err := s.db.ExecContext(ctx,
			`UPDATE phase_executions SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`,
			string(status), time.Now().UTC().Format(time.RFC3339), errMsg, id)
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE phase_executions SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func isTerminalPhaseStatus(s model.PhaseStatus) bool {
	switch s {
	case model.PhaseStatusCompleted, model.PhaseStatusFailed, model.PhaseStatusBlocked:
		return true
	default:
		return false
	}
}

// SetPhasePID records the worker process id for the latest execution of
// a phase.
func (s *Store) SetPhasePID(ctx context.Context, runID, phaseID string, pid int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE phase_executions SET worker_pid = ?
		 WHERE id = (SELECT id FROM phase_executions WHERE run_id = ? AND phase_id = ? ORDER BY id DESC LIMIT 1)`,
		pid, runID, phaseID)
	return err
}

// SetPhaseLogPath records the session log path for the latest execution
// of a phase.
func (s *Store) SetPhaseLogPath(ctx context.Context, runID, phaseID, logPath string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE phase_executions SET log_path = ?
		 WHERE id = (SELECT id FROM phase_executions WHERE run_id = ? AND phase_id = ? ORDER BY id DESC LIMIT 1)`,
		logPath, runID, phaseID)
	return err
}

// GetAttemptCount returns how many attempts have been recorded for a
// phase within a run.
func (s *Store) GetAttemptCount(ctx context.Context, runID, phaseID string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phase_executions WHERE run_id = ? AND phase_id = ?`, runID, phaseID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// RecordGateResult stores the outcome of one gate execution.
func (s *Store) RecordGateResult(ctx context.Context, runID, phaseID string, result model.GateResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gate_results (run_id, phase_id, name, command, passed, output, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, phaseID, result.Name, result.Command, boolToInt(result.Passed), result.Output,
		result.ExecutedAt.UTC().Format(time.RFC3339))
	return err
}

// GetGateResults returns all recorded gate results for a phase, oldest
// first.
func (s *Store) GetGateResults(ctx context.Context, runID, phaseID string) ([]model.GateResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, command, passed, output, executed_at
		 FROM gate_results WHERE run_id = ? AND phase_id = ? ORDER BY id ASC`, runID, phaseID)
	if err != nil {
		return nil, fmt.Errorf("query gate results: %w", err)
	}
	defer rows.Close()

	var results []model.GateResult
	for rows.Next() {
		var r model.GateResult
		var passed int
		var executedAt string
		if err := rows.Scan(&r.Name, &r.Command, &passed, &r.Output, &executedAt); err != nil {
			return nil, fmt.Errorf("scan gate result: %w", err)
		}
		r.Passed = passed != 0
		r.ExecutedAt, _ = time.Parse(time.RFC3339, executedAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

// RecordCompletionSignal stores a completion signal reported via
// `orc done`.
func (s *Store) RecordCompletionSignal(ctx context.Context, runID string, sig model.CompletionSignal) error {
	reportJSON, err := json.Marshal(sig.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO completion_signals (run_id, phase_id, status, reason, report, signaled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, sig.PhaseID, sig.Status, sig.Reason, string(reportJSON),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetCompletionSignal returns the most recent completion signal for a
// phase, or nil if none has been recorded.
func (s *Store) GetCompletionSignal(ctx context.Context, runID, phaseID string) (*model.CompletionSignal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT status, reason, report, signaled_at FROM completion_signals
		 WHERE run_id = ? AND phase_id = ? ORDER BY signaled_at DESC LIMIT 1`, runID, phaseID)

	var sig model.CompletionSignal
	sig.PhaseID = phaseID
	var reportJSON, signaledAt string
	var reason sql.NullString

	if err := row.Scan(&sig.Status, &reason, &reportJSON, &signaledAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan completion signal: %w", err)
	}
	sig.Reason = reason.String
	sig.SignaledAt, _ = time.Parse(time.RFC3339, signaledAt)
	if err := json.Unmarshal([]byte(reportJSON), &sig.Report); err != nil {
		sig.Report = map[string]any{}
	}
	return &sig, nil
}

// LogProgress records a breadcrumb emitted via `orc progress`.
func (s *Store) LogProgress(ctx context.Context, runID, phaseID, step string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_log (run_id, phase_id, step, logged_at) VALUES (?, ?, ?, ?)`,
		runID, phaseID, step, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetProgress returns all progress entries for a phase, oldest first.
func (s *Store) GetProgress(ctx context.Context, runID, phaseID string) ([]model.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, logged_at FROM progress_log WHERE run_id = ? AND phase_id = ? ORDER BY id ASC`,
		runID, phaseID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var entries []model.ProgressEntry
	for rows.Next() {
		var e model.ProgressEntry
		var loggedAt string
		if err := rows.Scan(&e.Step, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		e.LoggedAt, _ = time.Parse(time.RFC3339, loggedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindResumableRun returns the most recent run against the given master
// plan path that is still Running or Paused, or nil if there is none.
// Used at run start so completed phases are skipped even without an
// explicit --resume flag: the state store, not the plan markdown, is
// the source of truth for "already done".
func (s *Store) FindResumableRun(ctx context.Context, masterPlanPath string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, master_plan_path, started_at, completed_at, status, current_phase
		 FROM runs WHERE master_plan_path = ? AND status IN (?, ?)
		 ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		masterPlanPath, string(model.RunStatusRunning), string(model.RunStatusPaused))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetCompletedPhases returns the set of phase IDs whose latest recorded
// execution within a run is Completed.
func (s *Store) GetCompletedPhases(ctx context.Context, runID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phase_id, status FROM phase_executions pe
		 WHERE run_id = ? AND id = (
		     SELECT id FROM phase_executions WHERE run_id = pe.run_id AND phase_id = pe.phase_id
		     ORDER BY id DESC LIMIT 1
		 )`, runID)
	if err != nil {
		return nil, fmt.Errorf("query completed phases: %w", err)
	}
	defer rows.Close()

	completed := map[string]bool{}
	for rows.Next() {
		var phaseID, status string
		if err := rows.Scan(&phaseID, &status); err != nil {
			return nil, fmt.Errorf("scan phase status: %w", err)
		}
		if model.PhaseStatus(status) == model.PhaseStatusCompleted {
			completed[phaseID] = true
		}
	}
	return completed, rows.Err()
}

// ListPhaseExecutions returns every attempt recorded for a run, oldest
// first.
func (s *Store) ListPhaseExecutions(ctx context.Context, runID string) ([]model.PhaseExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phase_id, attempt, status, started_at, completed_at, worker_pid, log_path, error_message
		 FROM phase_executions WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list phase executions: %w", err)
	}
	defer rows.Close()

	var executions []model.PhaseExecution
	for rows.Next() {
		var pe model.PhaseExecution
		var startedAt, completedAt, logPath, errMsg sql.NullString
		var workerPID sql.NullInt64
		var status string
		if err := rows.Scan(&pe.ID, &pe.PhaseID, &pe.Attempt, &status, &startedAt, &completedAt, &workerPID, &logPath, &errMsg); err != nil {
			return nil, fmt.Errorf("scan phase execution: %w", err)
		}
		pe.RunID = runID
		pe.Status = model.PhaseStatus(status)
		pe.LogPath = logPath.String
		pe.ErrorMessage = errMsg.String
		if startedAt.Valid {
			t, _ := time.Parse(time.RFC3339, startedAt.String)
			pe.StartedAt = &t
		}
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			pe.CompletedAt = &t
		}
		if workerPID.Valid {
			pid := int(workerPID.Int64)
			pe.WorkerPID = &pid
		}
		executions = append(executions, pe)
	}
	return executions, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, master_plan_path, started_at, completed_at, status, current_phase
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var startedAt string
		var completedAt, currentPhase sql.NullString
		var status string
		if err := rows.Scan(&run.ID, &run.MasterPlanPath, &startedAt, &completedAt, &status, &currentPhase); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		run.Status = model.RunStatus(status)
		run.CurrentPhase = currentPhase.String
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
