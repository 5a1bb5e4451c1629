package driven

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// FrameHandler receives one raw frame. Frames are delivered one at a time
// in arrival order; the transport does not read the next frame until the
// handler returns.
type FrameHandler func(ctx context.Context, frame []byte) error

// ErrorHandler receives non-fatal errors: handler failures and frames the
// transport itself could not read.
type ErrorHandler func(err error)

// Transport is the firehose subscription.
type Transport interface {
	// Start connects and delivers frames until Stop is called or the
	// subscription fails. It returns nil after Stop and a non-nil error
	// on a connection or protocol failure.
	Start(ctx context.Context, onFrame FrameHandler, onError ErrorHandler) error

	// Stop requests shutdown and unblocks Start. It is idempotent and safe
	// to call before, during, or after Start.
	Stop() error
}

// EnvelopeDecoder turns a raw frame into a commit envelope.
type EnvelopeDecoder interface {
	// Decode returns the commit carried by frame, or nil and no error for
	// well-formed frames of any other kind.
	Decode(frame []byte) (*domain.Commit, error)
}
