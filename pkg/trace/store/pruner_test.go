package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/trace"
)

// seedEvents inserts n events for the run, all stamped with the given
// time.
func seedEvents(t *testing.T, s *Store, runID string, when time.Time, n int) {
	t.Helper()

	sink := s.Sink(runID)
	for i := 0; i < n; i++ {
		sink.Emit(trace.Event{
			Time:    when,
			Kind:    trace.KindEntryMatched,
			EntryID: fmt.Sprintf("%s-%d", runID, i),
		})
	}
}

// TestPruner_PruneByAge tests that events and runs older than the
// retention period are deleted.
func TestPruner_PruneByAge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	oldStart := now.AddDate(0, 0, -10)
	seedEvents(t, s, "run-old", oldStart, 3)
	if err := s.BeginRun(ctx, &Run{ID: "run-old", StartedAt: oldStart}); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	recentStart := now.AddDate(0, 0, -2)
	seedEvents(t, s, "run-recent", recentStart, 2)
	if err := s.BeginRun(ctx, &Run{ID: "run-recent", StartedAt: recentStart}); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	pruner := NewPruner(s, &Retention{Days: 7})

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted events, got %d", deleted)
	}

	count, err := s.CountEvents(ctx, nil)
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 remaining events, got %d", count)
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-recent" {
		t.Errorf("Expected only run-recent to remain, got %v", runs)
	}
}

// TestPruner_PruneByCount tests that the oldest events are deleted
// when the total exceeds the cap.
func TestPruner_PruneByCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEvents(t, s, "run-1", time.Now(), 6)

	pruner := NewPruner(s, &Retention{Days: 0, MaxRecords: 4})

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted events, got %d", deleted)
	}

	events, err := s.Events(ctx, nil)
	if err != nil {
		t.Fatalf("Events() failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("Expected 4 remaining events, got %d", len(events))
	}
	// The two oldest (first inserted) are gone.
	if events[0].EntryID != "run-1-2" {
		t.Errorf("Expected oldest events pruned first, got %q", events[0].EntryID)
	}
}

// TestPruner_AgeAndCount tests both phases running in one sweep.
func TestPruner_AgeAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	seedEvents(t, s, "run-old", now.AddDate(0, 0, -10), 3)
	seedEvents(t, s, "run-recent", now.AddDate(0, 0, -1), 4)

	pruner := NewPruner(s, &Retention{Days: 7, MaxRecords: 2})

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	// Age removes the 3 old events, the cap removes 2 of the 4 recent.
	if deleted != 5 {
		t.Errorf("Expected 5 deleted events, got %d", deleted)
	}

	events, err := s.Events(ctx, nil)
	if err != nil {
		t.Fatalf("Events() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 remaining events, got %d", len(events))
	}
	if events[0].EntryID != "run-recent-2" || events[1].EntryID != "run-recent-3" {
		t.Errorf("Expected newest events to remain, got %q, %q",
			events[0].EntryID, events[1].EntryID)
	}
}

// TestPruner_Disabled tests that a zero policy deletes nothing.
func TestPruner_Disabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEvents(t, s, "run-1", time.Now().AddDate(0, 0, -100), 5)

	pruner := NewPruner(s, &Retention{Days: 0, MaxRecords: 0})

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted events with pruning disabled, got %d", deleted)
	}

	count, err := s.CountEvents(ctx, nil)
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected all 5 events to remain, got %d", count)
	}
}

// TestPruner_NilPolicy tests that a nil policy falls back to the
// defaults.
func TestPruner_NilPolicy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEvents(t, s, "run-1", time.Now(), 2)

	pruner := NewPruner(s, nil)

	// Default retention is 30 days with no cap; fresh events survive.
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted events, got %d", deleted)
	}
}

// TestDefaultRetention tests the default policy values.
func TestDefaultRetention(t *testing.T) {
	policy := DefaultRetention()
	if policy.Days != 30 {
		t.Errorf("Expected 30 day retention, got %d", policy.Days)
	}
	if policy.MaxRecords != 0 {
		t.Errorf("Expected no record cap, got %d", policy.MaxRecords)
	}
	if policy.Schedule != "0 3 * * *" {
		t.Errorf("Expected daily 3 AM schedule, got %q", policy.Schedule)
	}
}
