package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/trace"
)

// Query filters stored events. Zero-valued fields are ignored; set
// fields combine with AND.
type Query struct {
	// RunID restricts results to one run.
	RunID string

	// Document, RuleSet, EntryID, and Rule match the corresponding
	// event fields exactly.
	Document string
	RuleSet  string
	EntryID  string
	Rule     string

	// Kind restricts results to one event kind.
	Kind string

	// Since and Until bound the event time (inclusive).
	Since *time.Time
	Until *time.Time

	// Limit caps the number of results when positive. Offset skips
	// that many matching events first.
	Limit  int
	Offset int
}

// StoredEvent is one persisted trace event together with its storage
// identity.
type StoredEvent struct {
	Seq   int64  `json:"seq"`
	RunID string `json:"run_id"`
	trace.Event
}

const selectEventSQL = `
SELECT seq, run_id, time, kind,
       document, ruleset, entry_id, rule,
       decision, action, outcome, path, detail
FROM events`

// Events returns stored events matching the query in insertion order.
func (s *Store) Events(ctx context.Context, q *Query) ([]*StoredEvent, error) {
	where, args := buildWhere(q)

	sqlQuery := selectEventSQL
	if where != "" {
		sqlQuery += " WHERE " + where
	}
	sqlQuery += " ORDER BY seq ASC"
	if q != nil && q.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	} else if q != nil && q.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET
		sqlQuery += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, newStorageError("query", err)
	}
	defer rows.Close()

	events := []*StoredEvent{}
	for rows.Next() {
		var (
			ev    StoredEvent
			nanos int64
			kind  string
		)
		err := rows.Scan(
			&ev.Seq, &ev.RunID, &nanos, &kind,
			&ev.Document, &ev.RuleSet, &ev.EntryID, &ev.Rule,
			&ev.Decision, &ev.Action, &ev.Outcome, &ev.Path, &ev.Detail,
		)
		if err != nil {
			return nil, newStorageError("scan", err)
		}
		ev.Time = time.Unix(0, nanos)
		ev.Kind = trace.Kind(kind)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("query", err)
	}

	return events, nil
}

// CountEvents returns the number of stored events matching the query.
// Limit and Offset are ignored.
func (s *Store) CountEvents(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhere(q)

	sqlQuery := "SELECT COUNT(*) FROM events"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, newStorageError("count", err)
	}
	return count, nil
}

// buildWhere builds a SQL WHERE clause from the query filters. Returns
// the clause (without the "WHERE" keyword) and its arguments.
func buildWhere(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if q.RunID != "" {
		add("run_id = ?", q.RunID)
	}
	if q.Document != "" {
		add("document = ?", q.Document)
	}
	if q.RuleSet != "" {
		add("ruleset = ?", q.RuleSet)
	}
	if q.EntryID != "" {
		add("entry_id = ?", q.EntryID)
	}
	if q.Rule != "" {
		add("rule = ?", q.Rule)
	}
	if q.Kind != "" {
		add("kind = ?", q.Kind)
	}
	if q.Since != nil {
		add("time >= ?", q.Since.UnixNano())
	}
	if q.Until != nil {
		add("time <= ?", q.Until.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}
