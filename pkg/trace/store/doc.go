// Package store persists trace events to SQLite so conversion runs can
// be inspected after the fact.
//
// A Store owns a single database file holding two tables: runs (one
// row per conversion run, with summary counters) and events (one row
// per trace event, in insertion order). Events arrive through the
// trace.Sink returned by Store.Sink and are queried back with Events
// using field and time-range filters.
//
// Old data is removed by a Pruner, either on demand or on a cron
// schedule for long-lived processes. Query results can be exported as
// JSON or CSV.
//
// The store uses the pure-Go modernc.org/sqlite driver and keeps a
// single connection: conversions write from one goroutine and
// concurrency comes from WAL mode readers.
package store
