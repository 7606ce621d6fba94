package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retention is the pruning policy for stored trace data.
type Retention struct {
	// Days is how many days of events to keep. Zero or negative
	// disables age-based pruning.
	Days int

	// MaxRecords caps the total number of stored events. When the cap
	// is exceeded the oldest events are deleted first. Zero disables
	// the cap.
	MaxRecords int64

	// Schedule is a standard cron expression for background pruning,
	// e.g. "0 3 * * *" for daily at 3 AM. Empty disables the
	// scheduler; Prune can still be called directly.
	Schedule string
}

// DefaultRetention returns the default pruning policy.
func DefaultRetention() *Retention {
	return &Retention{
		Days:       30,
		MaxRecords: 0,
		Schedule:   "0 3 * * *",
	}
}

// Pruner enforces a retention policy on a trace store.
type Pruner struct {
	store     *Store
	policy    *Retention
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner for the given store. A nil policy uses
// DefaultRetention.
func NewPruner(store *Store, policy *Retention) *Pruner {
	if policy == nil {
		policy = DefaultRetention()
	}

	p := &Pruner{
		store:  store,
		policy: policy,
		logger: slog.Default().With("component", "trace.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes stored trace data outside the retention policy.
//
// Pruning runs in two phases:
//  1. Age-based: events and runs older than Days are deleted.
//  2. Count-based: if the remaining event count exceeds MaxRecords,
//     the oldest events are deleted until the count is back under it.
//
// Returns the total number of events deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.policy.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned events by age",
			"deleted", deleted,
			"retention_days", p.policy.Days,
		)
	}

	if p.policy.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned events by count",
			"deleted", deleted,
			"max_records", p.policy.MaxRecords,
		)
	}

	if total > 0 {
		p.logger.Info("trace pruning completed",
			"deleted", total,
			"retention_days", p.policy.Days,
			"max_records", p.policy.MaxRecords,
		)
	}

	return total, nil
}

// pruneByAge deletes events older than the retention period, along
// with runs that started before the cutoff.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.policy.Days)

	res, err := p.store.db.ExecContext(ctx,
		`DELETE FROM events WHERE time < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, newStorageError("prune", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("prune", err)
	}

	if _, err := p.store.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`, cutoff.UnixNano()); err != nil {
		return deleted, newStorageError("prune", err)
	}

	return deleted, nil
}

// pruneByCount deletes the oldest events when the total count exceeds
// MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.CountEvents(ctx, nil)
	if err != nil {
		return 0, err
	}
	if count <= p.policy.MaxRecords {
		return 0, nil
	}

	toDelete := count - p.policy.MaxRecords

	// Oldest first: seq is monotonic insertion order.
	res, err := p.store.db.ExecContext(ctx,
		`DELETE FROM events WHERE seq IN (
			SELECT seq FROM events ORDER BY seq ASC LIMIT ?)`, toDelete)
	if err != nil {
		return 0, newStorageError("prune", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, newStorageError("prune", err)
	}

	return deleted, nil
}

// Start begins scheduled pruning. Call this for long-lived processes
// such as watch mode; one-shot runs should call Prune directly.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the pruning scheduler and waits for any running sweep to
// finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, or nil
// when the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
