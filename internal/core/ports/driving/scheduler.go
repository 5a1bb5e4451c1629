package driving

import "context"

// Scheduler manages background tasks like the reputation recompute.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error
}

// RecomputeTrigger requests an out-of-schedule reputation recompute.
type RecomputeTrigger interface {
	// Request asks for a recompute. Requests made while one is pending are
	// coalesced. It reports whether the request was accepted.
	Request(reason string) bool
}
