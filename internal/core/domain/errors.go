package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Firehose Errors.

	// ErrTransport indicates the firehose subscription failed.
	// It is the only error class that ends a consumer run.
	ErrTransport = errors.New("transport failure")

	// ErrUpstream indicates the remote service sent an error frame.
	ErrUpstream = errors.New("upstream error frame")

	// ErrEnvelope indicates a frame could not be decoded into an envelope.
	ErrEnvelope = errors.New("malformed envelope")

	// ErrContainer indicates the block container framing is unparseable.
	// Only the commit carrying it is skipped.
	ErrContainer = errors.New("malformed block container")

	// ErrBlockDecode indicates a single block could not be decoded.
	ErrBlockDecode = errors.New("block decode failed")

	// ErrUnsupportedCodec indicates a block uses a codec we do not decode.
	ErrUnsupportedCodec = errors.New("unsupported block codec")

	// Storage Errors.

	// ErrFileCollision indicates no free file name was found for a record.
	ErrFileCollision = errors.New("record file name collision")

	// Reputation Errors.

	// ErrMissingIdentity indicates a persisted record has no publisher identity.
	ErrMissingIdentity = errors.New("record has no identity")

	// ErrBadTimestamp indicates a partition or file name does not encode a time.
	ErrBadTimestamp = errors.New("unparseable record timestamp")

	// ErrScore indicates the longevity score could not be computed.
	ErrScore = errors.New("score computation failed")
)
