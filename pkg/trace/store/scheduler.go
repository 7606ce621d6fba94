package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs retention pruning on a cron schedule.
type Scheduler struct {
	pruner *Pruner
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
}

// NewScheduler creates a scheduler for the given pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: slog.Default().With("component", "trace.scheduler"),
	}
}

// Start begins scheduled pruning using the policy's cron expression.
// An empty schedule disables the scheduler. The scheduler stops when
// ctx is cancelled; calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.policy.Schedule
	if schedule == "" {
		s.logger.Debug("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(schedule, func() { s.sweep(ctx) })
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	c.Start()

	s.cron = c
	s.entry = id
	s.running = true
	s.logger.Info("trace retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.policy.Days,
		"max_records", s.pruner.policy.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// sweep runs one pruning pass.
func (s *Scheduler) sweep(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	switch {
	case err != nil:
		s.logger.Error("scheduled pruning failed", "error", err)
	case deleted > 0:
		s.logger.Info("scheduled pruning completed", "deleted", deleted)
	default:
		s.logger.Debug("scheduled pruning completed, nothing to delete")
	}
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("trace retention scheduler stopped")
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or nil when nothing
// is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	return &next
}
