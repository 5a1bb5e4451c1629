package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
)

// DefaultHistoryLimit is used when History is asked for zero or fewer runs.
const DefaultHistoryLimit = 10

var _ driving.RecomputeHistory = (*History)(nil)

// History reads recompute runs recorded by a Scheduler, possibly one
// running in another process against the same store.
type History struct {
	store driven.SchedulerStore
}

// NewHistory creates a history reader over store.
func NewHistory(store driven.SchedulerStore) *History {
	return &History{store: store}
}

// History returns the recompute task and its most recent runs.
func (h *History) History(ctx context.Context, limit int) (*domain.RecomputeHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, historyRetention)

	task, err := h.store.GetTask(ctx, domain.TaskIDReputationRecompute)
	if err != nil {
		return nil, fmt.Errorf("load recompute task: %w", err)
	}
	runs, err := h.store.RecentRuns(ctx, domain.TaskIDReputationRecompute, limit)
	if err != nil {
		return nil, fmt.Errorf("load recompute runs: %w", err)
	}
	return &domain.RecomputeHistory{Task: task, Runs: runs}, nil
}
