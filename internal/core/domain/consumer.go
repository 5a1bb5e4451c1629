package domain

import "time"

// ConsumerState is a state of the firehose consumer.
//
//	Connecting -> Streaming -> (Stopping | Failed) -> Stopped
type ConsumerState int

const (
	// StateIdle is the state before Run is called.
	StateIdle ConsumerState = iota

	// StateConnecting means the subscription is being established.
	StateConnecting

	// StateStreaming means frames are arriving.
	StateStreaming

	// StateStopping means a stop was requested and in-flight work drains.
	StateStopping

	// StateFailed means the transport raised a fatal error.
	StateFailed

	// StateStopped is terminal.
	StateStopped
)

// String returns the state name.
func (s ConsumerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s ConsumerState) Terminal() bool {
	return s == StateStopped
}

// ConsumerStatus is a snapshot of consumer progress.
type ConsumerStatus struct {
	// RunID identifies the consumer run.
	RunID string

	// State is the current state.
	State ConsumerState

	// StartedAt is when Run was called.
	StartedAt time.Time

	// LastSeq is the sequence number of the last commit handled.
	LastSeq int64

	// Frames is the number of frames received.
	Frames int

	// Commits is the number of commit frames processed.
	Commits int

	// SkippedCommits is the number of commits not processed.
	SkippedCommits int

	// BlockFailures is the number of undecodable blocks.
	BlockFailures int

	// RecordsWritten is the number of record files created.
	RecordsWritten int

	// WriteFailures is the number of records that could not be written.
	WriteFailures int
}
