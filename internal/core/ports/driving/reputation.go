package driving

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// ReputationService maintains publisher reputation scores.
type ReputationService interface {
	// Recompute folds every persisted record of recordType into the store
	// and overwrites it. An empty recordType uses the configured default.
	Recompute(ctx context.Context, recordType string) (*domain.ScanResult, error)

	// Get returns the entry for one identity.
	Get(ctx context.Context, identity string) (*domain.ReputationEntry, error)

	// List returns entries with a score of at least minScore, best first.
	// A limit of zero or less returns all of them.
	List(ctx context.Context, limit int, minScore float64) ([]domain.ReputationEntry, error)
}
