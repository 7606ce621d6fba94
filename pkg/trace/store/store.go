package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/trace"
)

// Config contains configuration for the SQLite trace store.
type Config struct {
	// Path is the database file path. Parent directories are created
	// on open.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:        "data/trace.db",
		BusyTimeout: 5 * time.Second,
		WALMode:     true,
	}
}

// Store persists conversion runs and their trace events in a single
// SQLite database. SQLite supports one writer, so the connection pool
// is capped at a single connection.
type Store struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger

	insertEvent *sql.Stmt
}

// Open opens the trace database at cfg.Path, creating the file and its
// schema if needed, and verifies the schema version.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, newStorageError("open", fmt.Errorf("path cannot be empty"))
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newStorageError("create directory", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, newStorageError("open", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		config: cfg,
		logger: slog.Default().With("component", "trace.store"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.insertEvent, err = db.Prepare(insertEventSQL)
	if err != nil {
		db.Close()
		return nil, newStorageError("prepare insert", err)
	}

	s.logger.Debug("trace store opened",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
	)

	return s, nil
}

// initialize sets up pragmas and the database schema.
func (s *Store) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return newStorageError("enable wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return newStorageError("set busy timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("create schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return newStorageError("insert schema version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return newStorageError("get schema version", err)
	}
	if version != SchemaVersion {
		return newStorageError("schema version mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Close releases the prepared statements and the database connection.
func (s *Store) Close() error {
	if s.insertEvent != nil {
		s.insertEvent.Close()
	}
	if err := s.db.Close(); err != nil {
		return newStorageError("close", err)
	}
	return nil
}

const insertEventSQL = `
INSERT INTO events (
    run_id, time, kind,
    document, ruleset, entry_id, rule,
    decision, action, outcome, path, detail
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Sink returns a trace sink that persists every event under the given
// run id. Insert failures are logged and dropped; tracing never fails
// a conversion.
func (s *Store) Sink(runID string) trace.Sink {
	return &storeSink{store: s, runID: runID}
}

type storeSink struct {
	store *Store
	runID string
}

func (ss *storeSink) Emit(ev trace.Event) {
	ev = trace.Stamp(ev)
	_, err := ss.store.insertEvent.Exec(
		ss.runID, ev.Time.UnixNano(), string(ev.Kind),
		ev.Document, ev.RuleSet, ev.EntryID, ev.Rule,
		ev.Decision, ev.Action, ev.Outcome, ev.Path, ev.Detail,
	)
	if err != nil {
		ss.store.logger.Warn("trace event insert failed",
			"run_id", ss.runID,
			"kind", string(ev.Kind),
			"error", err,
		)
	}
}

// Run summarizes one conversion invocation.
type Run struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	RulesFile      string     `json:"rules_file,omitempty"`
	Documents      int        `json:"documents"`
	Entries        int        `json:"entries"`
	RulesExecuted  int        `json:"rules_executed"`
	RulesSkipped   int        `json:"rules_skipped"`
	ActionsApplied int        `json:"actions_applied"`
	Diagnostics    int        `json:"diagnostics"`
}

// BeginRun records the start of a run. Only the identity fields are
// written; counts are filled in by FinishRun.
func (s *Store) BeginRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, rules_file) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.RulesFile,
	)
	if err != nil {
		return newStorageError("begin run", err)
	}
	return nil
}

// FinishRun records completion time and final counts for a run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
			finished_at = ?,
			documents = ?, entries = ?,
			rules_executed = ?, rules_skipped = ?,
			actions_applied = ?, diagnostics = ?
		WHERE id = ?`,
		finished.UnixNano(),
		run.Documents, run.Entries,
		run.RulesExecuted, run.RulesSkipped,
		run.ActionsApplied, run.Diagnostics,
		run.ID,
	)
	if err != nil {
		return newStorageError("finish run", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. A non-positive
// limit returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, rules_file,
		       documents, entries, rules_executed, rules_skipped,
		       actions_applied, diagnostics
		FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newStorageError("list runs", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		var (
			run        Run
			startedAt  int64
			finishedAt sql.NullInt64
		)
		err := rows.Scan(
			&run.ID, &startedAt, &finishedAt, &run.RulesFile,
			&run.Documents, &run.Entries, &run.RulesExecuted, &run.RulesSkipped,
			&run.ActionsApplied, &run.Diagnostics,
		)
		if err != nil {
			return nil, newStorageError("scan run", err)
		}
		run.StartedAt = time.Unix(0, startedAt)
		if finishedAt.Valid {
			t := time.Unix(0, finishedAt.Int64)
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("list runs", err)
	}

	return runs, nil
}
