package driving

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// RecomputeHistory reads back what the scheduler recorded.
type RecomputeHistory interface {
	// History returns the recurring task and up to limit recent runs.
	History(ctx context.Context, limit int) (*domain.RecomputeHistory, error)
}
