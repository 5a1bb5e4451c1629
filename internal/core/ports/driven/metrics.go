package driven

import (
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// Metrics receives pipeline measurements.
type Metrics interface {
	// FrameReceived counts one inbound frame.
	FrameReceived()

	// CommitProcessed records the outcome of one commit.
	CommitProcessed(result domain.CommitResult)

	// RecomputeFinished records one reputation pass.
	RecomputeFinished(result domain.ScanResult, elapsed time.Duration, err error)
}
