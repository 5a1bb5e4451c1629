package driven

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// ReputationStore persists the reputation map as a single object.
type ReputationStore interface {
	// Load reads the whole map. A missing store yields an empty map.
	// Entries that cannot be parsed are left out and their identities
	// returned in dropped.
	Load(ctx context.Context) (entries domain.ReputationMap, dropped []string, err error)

	// Save overwrites the whole map.
	Save(ctx context.Context, entries domain.ReputationMap) error

	// Path returns the storage location.
	Path() string
}
