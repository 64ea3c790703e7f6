package statestore

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	master_plan_path TEXT NOT NULL,
	started_at TEXT NOT NULL,
	completed_at TEXT,
	status TEXT NOT NULL,
	current_phase TEXT
);

CREATE TABLE IF NOT EXISTS phase_executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	phase_id TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	status TEXT NOT NULL,
	started_at TEXT,
	completed_at TEXT,
	worker_pid INTEGER,
	log_path TEXT,
	error_message TEXT,
	UNIQUE(run_id, phase_id, attempt)
);

CREATE TABLE IF NOT EXISTS gate_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	phase_id TEXT NOT NULL,
	name TEXT NOT NULL,
	command TEXT NOT NULL,
	passed INTEGER NOT NULL,
	output TEXT,
	executed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS completion_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	phase_id TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT,
	report TEXT,
	signaled_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS progress_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	phase_id TEXT NOT NULL,
	step TEXT NOT NULL,
	logged_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_phase_executions_run_phase
	ON phase_executions(run_id, phase_id);

CREATE INDEX IF NOT EXISTS idx_gate_results_run_phase
	ON gate_results(run_id, phase_id);

CREATE INDEX IF NOT EXISTS idx_progress_log_run_phase
	ON progress_log(run_id, phase_id);
`
