package domain

// BlockEncoding declares how a commit's block container was delivered.
type BlockEncoding int

const (
	// EncodingBinary means the container bytes are used as-is.
	EncodingBinary BlockEncoding = iota

	// EncodingText means the container arrived as text and is encoded
	// to bytes (UTF-8) once before binary decoding.
	EncodingText
)

// String returns the encoding name.
func (e BlockEncoding) String() string {
	switch e {
	case EncodingBinary:
		return "binary"
	case EncodingText:
		return "text"
	default:
		return "unknown"
	}
}

// RawBlocks is an undecoded block container as carried by a commit.
type RawBlocks struct {
	// Encoding declares which of Data or Text holds the container.
	Encoding BlockEncoding

	// Data holds the container when Encoding is EncodingBinary.
	Data []byte

	// Text holds the container when Encoding is EncodingText.
	Text string
}

// Bytes returns the container bytes, encoding text when required.
func (r RawBlocks) Bytes() []byte {
	if r.Encoding == EncodingText {
		return []byte(r.Text)
	}
	return r.Data
}

// Empty reports whether the container carries no bytes.
func (r RawBlocks) Empty() bool {
	if r.Encoding == EncodingText {
		return r.Text == ""
	}
	return len(r.Data) == 0
}

// Commit is one repository change event from the firehose.
// It is consumed once and discarded.
type Commit struct {
	// Seq is the stream sequence number. It increases monotonically but is
	// not a unique key.
	Seq int64

	// Repo is the identity of the repository that changed.
	Repo string

	// Rev is the repository revision after the change.
	Rev string

	// Time is the upstream timestamp string of the event.
	Time string

	// TooBig is set when upstream omitted blocks because the change was large.
	TooBig bool

	// Blocks is the content-addressed block container.
	Blocks RawBlocks
}

// BlockMap maps a content identifier string to its decoded value.
// Values are map[string]any, []any, scalars, or []byte for raw blocks.
type BlockMap map[string]any

// BlockFailure records one block that could not be decoded.
type BlockFailure struct {
	// Index is the zero-based position of the block in the container.
	Index int

	// CID is the block identifier, empty when the identifier itself was bad.
	CID string

	// Err describes the failure.
	Err error
}

// BlockDecodeResult is the outcome of decoding one container.
type BlockDecodeResult struct {
	// Roots lists the root identifiers named in the container header.
	Roots []string

	// Blocks holds every block that decoded.
	Blocks BlockMap

	// Failures holds every block that did not.
	Failures []BlockFailure
}
