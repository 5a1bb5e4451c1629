package car

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.BlockDecoder = (*Decoder)(nil)

// linkTag is the CBOR tag DAG-CBOR uses for CID links.
const linkTag = 42

// carVersion is the only container version accepted.
const carVersion = 1

var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// DAG-CBOR forbids duplicate keys.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("car: CBOR decoder initialization failed: " + err.Error())
	}
}

// header is the container header.
type header struct {
	Version uint64     `cbor:"version"`
	Roots   []cbor.Tag `cbor:"roots"`
}

// Decoder decodes CAR v1 containers. It is stateless and safe for
// concurrent use.
type Decoder struct{}

// NewDecoder creates a block decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode implements driven.BlockDecoder.
func (d *Decoder) Decode(raw domain.RawBlocks) (domain.BlockDecodeResult, error) {
	data := raw.Bytes()
	result := domain.BlockDecodeResult{Blocks: domain.BlockMap{}}

	body, rest, err := nextSection(data)
	if err != nil {
		return result, fmt.Errorf("%w: header: %v", domain.ErrContainer, err)
	}
	roots, err := decodeHeader(body)
	if err != nil {
		return result, fmt.Errorf("%w: header: %v", domain.ErrContainer, err)
	}
	result.Roots = roots

	for index := 0; len(rest) > 0; index++ {
		body, rest, err = nextSection(rest)
		if err != nil {
			return result, fmt.Errorf("%w: section %d: %v", domain.ErrContainer, index, err)
		}

		id, value, err := decodeSection(body)
		if err != nil {
			result.Failures = append(result.Failures, domain.BlockFailure{
				Index: index,
				CID:   id,
				Err:   err,
			})
			continue
		}
		result.Blocks[id] = value
	}

	return result, nil
}

// nextSection splits one varint-prefixed section off data.
func nextSection(data []byte) (section, rest []byte, err error) {
	if len(data) == 0 {
		return nil, nil, errors.New("unexpected end of container")
	}
	length, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, nil, fmt.Errorf("length prefix: %w", err)
	}
	data = data[n:]
	if length == 0 {
		return nil, nil, errors.New("empty section")
	}
	if length > uint64(len(data)) {
		return nil, nil, fmt.Errorf("section length %d exceeds remaining %d bytes", length, len(data))
	}
	return data[:length], data[length:], nil
}

func decodeHeader(data []byte) ([]string, error) {
	var h header
	if err := decMode.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	if h.Version != carVersion {
		return nil, fmt.Errorf("unsupported version %d", h.Version)
	}
	roots := make([]string, 0, len(h.Roots))
	for _, tag := range h.Roots {
		link, err := decodeLink(tag)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		roots = append(roots, link)
	}
	return roots, nil
}

// decodeSection returns the block CID string and its decoded value.
func decodeSection(section []byte) (string, any, error) {
	n, c, err := cid.CidFromBytes(section)
	if err != nil {
		return "", nil, fmt.Errorf("%w: cid: %v", domain.ErrBlockDecode, err)
	}
	id := c.String()
	block := section[n:]

	switch c.Prefix().Codec {
	case cid.DagCBOR:
		var v any
		if err := decMode.Unmarshal(block, &v); err != nil {
			return id, nil, fmt.Errorf("%w: %v", domain.ErrBlockDecode, err)
		}
		value, err := normalize(v)
		if err != nil {
			return id, nil, fmt.Errorf("%w: %v", domain.ErrBlockDecode, err)
		}
		return id, value, nil
	case cid.Raw:
		return id, append([]byte(nil), block...), nil
	default:
		return id, nil, fmt.Errorf("%w: 0x%x", domain.ErrUnsupportedCodec, c.Prefix().Codec)
	}
}

// normalize rewrites links and byte strings into their JSON forms.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = n
		}
		return t, nil
	case []any:
		for i, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			t[i] = n
		}
		return t, nil
	case []byte:
		return map[string]any{"$bytes": base64.RawStdEncoding.EncodeToString(t)}, nil
	case cbor.Tag:
		if t.Number != linkTag {
			return nil, fmt.Errorf("unsupported tag %d", t.Number)
		}
		link, err := decodeLink(t)
		if err != nil {
			return nil, err
		}
		return map[string]any{"$link": link}, nil
	default:
		return v, nil
	}
}

// decodeLink parses a tag-42 link. The payload is the CID bytes behind a
// zero multibase prefix.
func decodeLink(tag cbor.Tag) (string, error) {
	if tag.Number != linkTag {
		return "", fmt.Errorf("expected link tag, got %d", tag.Number)
	}
	payload, ok := tag.Content.([]byte)
	if !ok || len(payload) < 2 || payload[0] != 0x00 {
		return "", errors.New("malformed link")
	}
	c, err := cid.Cast(payload[1:])
	if err != nil {
		return "", fmt.Errorf("link: %w", err)
	}
	return c.String(), nil
}
