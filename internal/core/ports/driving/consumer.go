package driving

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// Consumer drives the firehose event loop.
type Consumer interface {
	// Run subscribes and processes commits until the context is cancelled,
	// the max runtime elapses, or the transport fails. Only a transport
	// failure is returned as an error.
	Run(ctx context.Context) error

	// State returns the current state.
	State() domain.ConsumerState

	// Status returns a snapshot of progress counters.
	Status() domain.ConsumerStatus
}
