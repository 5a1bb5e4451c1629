package atproto

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure EnvelopeDecoder implements the interface.
var _ driven.EnvelopeDecoder = (*EnvelopeDecoder)(nil)

// Frame operations.
const (
	OpMessage = 1
	OpError   = -1
)

// Message kinds carried in the frame header.
const (
	KindCommit    = "#commit"
	KindIdentity  = "#identity"
	KindAccount   = "#account"
	KindSync      = "#sync"
	KindInfo      = "#info"
	KindHandle    = "#handle"
	KindTombstone = "#tombstone"
)

var frameDecMode cbor.DecMode

func init() {
	var err error
	frameDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("atproto: CBOR decoder initialization failed: " + err.Error())
	}
}

// frameHeader is the first CBOR item of every frame.
type frameHeader struct {
	Op   int64  `cbor:"op"`
	Kind string `cbor:"t"`
}

// commitBody is the subset of a #commit body the pipeline uses.
type commitBody struct {
	Seq    int64  `cbor:"seq"`
	Repo   string `cbor:"repo"`
	Rev    string `cbor:"rev"`
	Time   string `cbor:"time"`
	TooBig bool   `cbor:"tooBig"`
	Blocks any    `cbor:"blocks"`
}

// errorBody is the body of an error frame.
type errorBody struct {
	Error   string `cbor:"error"`
	Message string `cbor:"message"`
}

// EnvelopeDecoder decodes firehose frames. It is safe for concurrent use.
type EnvelopeDecoder struct{}

// NewEnvelopeDecoder creates a frame decoder.
func NewEnvelopeDecoder() *EnvelopeDecoder {
	return &EnvelopeDecoder{}
}

// Decode implements driven.EnvelopeDecoder.
func (d *EnvelopeDecoder) Decode(frame []byte) (*domain.Commit, error) {
	var h frameHeader
	rest, err := frameDecMode.UnmarshalFirst(frame, &h)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", domain.ErrEnvelope, err)
	}

	switch h.Op {
	case OpError:
		var body errorBody
		if err := frameDecMode.Unmarshal(rest, &body); err != nil {
			return nil, fmt.Errorf("%w: undecodable error body", domain.ErrUpstream)
		}
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrUpstream, body.Error, body.Message)
	case OpMessage:
	default:
		return nil, fmt.Errorf("%w: unknown op %d", domain.ErrEnvelope, h.Op)
	}

	if h.Kind != KindCommit {
		return nil, nil
	}

	var body commitBody
	if err := frameDecMode.Unmarshal(rest, &body); err != nil {
		return nil, fmt.Errorf("%w: commit body: %v", domain.ErrEnvelope, err)
	}

	commit := &domain.Commit{
		Seq:    body.Seq,
		Repo:   body.Repo,
		Rev:    body.Rev,
		Time:   body.Time,
		TooBig: body.TooBig,
	}
	switch blocks := body.Blocks.(type) {
	case nil:
	case []byte:
		commit.Blocks = domain.RawBlocks{Encoding: domain.EncodingBinary, Data: blocks}
	case string:
		commit.Blocks = domain.RawBlocks{Encoding: domain.EncodingText, Text: blocks}
	default:
		return nil, fmt.Errorf("%w: blocks has type %T", domain.ErrEnvelope, body.Blocks)
	}
	return commit, nil
}
