package store

// SchemaVersion identifies the on-disk layout. Bump it when the tables
// change shape.
const SchemaVersion = 1

// Schema contains the SQL statements to create the trace database
// schema. Timestamps are stored as integer Unix nanoseconds.
const Schema = `
-- Conversion runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER,
    rules_file TEXT NOT NULL DEFAULT '',
    documents INTEGER NOT NULL DEFAULT 0,
    entries INTEGER NOT NULL DEFAULT 0,
    rules_executed INTEGER NOT NULL DEFAULT 0,
    rules_skipped INTEGER NOT NULL DEFAULT 0,
    actions_applied INTEGER NOT NULL DEFAULT 0,
    diagnostics INTEGER NOT NULL DEFAULT 0
);

-- Trace events, one row per engine event
CREATE TABLE IF NOT EXISTS events (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    time INTEGER NOT NULL,
    kind TEXT NOT NULL,
    document TEXT NOT NULL DEFAULT '',
    ruleset TEXT NOT NULL DEFAULT '',
    entry_id TEXT NOT NULL DEFAULT '',
    rule TEXT NOT NULL DEFAULT '',
    decision TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT ''
);

-- Layout version, stamped when the database is created
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

-- Query paths used by the trace CLI
CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
CREATE INDEX IF NOT EXISTS idx_events_document ON events(document);
CREATE INDEX IF NOT EXISTS idx_events_entry_id ON events(entry_id);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// InsertSchemaVersion records the version once; reopening an existing
// database keeps the original stamp.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads the newest recorded version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
