package driven

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// SchedulerStore persists the recurring recompute task and the history of
// recompute runs, so a restarted worker keeps its schedule.
type SchedulerStore interface {
	// GetTask returns the task, or nil and no error if it does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// SaveTask creates or replaces the task with the same ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordRun appends one run to the task's history.
	RecordRun(ctx context.Context, run *domain.TaskResult) error

	// RecentRuns returns up to limit runs of the task, newest first.
	RecentRuns(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneRuns keeps only the newest keep runs of the task.
	PruneRuns(ctx context.Context, taskID string, keep int) error
}
