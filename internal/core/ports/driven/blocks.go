package driven

import "github.com/custodia-labs/skywatch/internal/core/domain"

// BlockDecoder decodes a content-addressed block container.
type BlockDecoder interface {
	// Decode returns every block that decoded plus a failure entry for
	// every block that did not. The error is non-nil only when the
	// container framing itself is unparseable.
	Decode(raw domain.RawBlocks) (domain.BlockDecodeResult, error)
}
