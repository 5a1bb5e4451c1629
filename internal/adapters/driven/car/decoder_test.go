package car

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

const codecDagPB = 0x70

// cidBytes builds a CIDv1 with a sha2-256 multihash over data.
func cidBytes(codec byte, data []byte) []byte {
	sum := sha256.Sum256(data)
	out := []byte{0x01, codec, 0x12, 0x20}
	return append(out, sum[:]...)
}

func cidString(t *testing.T, raw []byte) string {
	t.Helper()
	c, err := cid.Cast(raw)
	require.NoError(t, err)
	return c.String()
}

func link(raw []byte) cbor.Tag {
	return cbor.Tag{Number: linkTag, Content: append([]byte{0x00}, raw...)}
}

func mustCBOR(t *testing.T, v any) []byte {
	t.Helper()
	data, err := cbor.Marshal(v)
	require.NoError(t, err)
	return data
}

func withLength(section []byte) []byte {
	return append(varint.ToUvarint(uint64(len(section))), section...)
}

type block struct {
	cid  []byte
	body []byte
}

func dagBlock(t *testing.T, v any) block {
	t.Helper()
	body := mustCBOR(t, v)
	return block{cid: cidBytes(byte(cid.DagCBOR), body), body: body}
}

// container assembles a CAR v1 with the first block as root.
func container(t *testing.T, blocks ...block) []byte {
	t.Helper()
	roots := []cbor.Tag{}
	if len(blocks) > 0 {
		roots = append(roots, link(blocks[0].cid))
	}
	out := withLength(mustCBOR(t, map[string]any{"version": 1, "roots": roots}))
	for _, b := range blocks {
		out = append(out, withLength(append(append([]byte{}, b.cid...), b.body...))...)
	}
	return out
}

func binary(data []byte) domain.RawBlocks {
	return domain.RawBlocks{Encoding: domain.EncodingBinary, Data: data}
}

func TestDecoder_DecodesRecords(t *testing.T) {
	server := dagBlock(t, map[string]any{
		"$type": "app.mcp.server",
		"name":  "weather",
		"did":   "did:plc:abc",
		"tools": []any{"forecast", "alerts"},
	})
	other := dagBlock(t, map[string]any{"$type": "app.bsky.feed.post", "text": "hi"})

	result, err := NewDecoder().Decode(binary(container(t, server, other)))
	require.NoError(t, err)

	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{cidString(t, server.cid)}, result.Roots)
	require.Len(t, result.Blocks, 2)

	rec, ok := result.Blocks[cidString(t, server.cid)].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "app.mcp.server", rec["$type"])
	assert.Equal(t, "weather", rec["name"])
	assert.Equal(t, []any{"forecast", "alerts"}, rec["tools"])
}

func TestDecoder_LinksAndBytesBecomeJSONForms(t *testing.T) {
	target := cidBytes(byte(cid.DagCBOR), []byte("target"))
	b := dagBlock(t, map[string]any{
		"$type": "app.mcp.server",
		"ref":   link(target),
		"blob":  []byte{0xde, 0xad, 0xbe, 0xef},
		"list":  []any{link(target)},
	})

	result, err := NewDecoder().Decode(binary(container(t, b)))
	require.NoError(t, err)

	rec := result.Blocks[cidString(t, b.cid)].(map[string]any)
	assert.Equal(t, map[string]any{"$link": cidString(t, target)}, rec["ref"])
	assert.Equal(t, map[string]any{"$bytes": "3q2+7w"}, rec["blob"])
	assert.Equal(t, []any{map[string]any{"$link": cidString(t, target)}}, rec["list"])

	_, err = json.Marshal(rec)
	assert.NoError(t, err)
}

func TestDecoder_BadBlockDoesNotAbortSiblings(t *testing.T) {
	good1 := dagBlock(t, map[string]any{"$type": "app.mcp.server", "name": "one"})
	good2 := dagBlock(t, map[string]any{"$type": "app.mcp.server", "name": "two"})
	garbage := []byte{0xbf, 0xff, 0xff}
	bad := block{cid: cidBytes(byte(cid.DagCBOR), garbage), body: garbage}

	result, err := NewDecoder().Decode(binary(container(t, good1, bad, good2)))
	require.NoError(t, err)

	assert.Len(t, result.Blocks, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, cidString(t, bad.cid), result.Failures[0].CID)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrBlockDecode)
}

func TestDecoder_BadCIDIsBlockFailure(t *testing.T) {
	good := dagBlock(t, map[string]any{"name": "ok"})
	bad := block{cid: []byte{0x01, 0x71, 0x12}, body: nil}

	result, err := NewDecoder().Decode(binary(container(t, good, bad)))
	require.NoError(t, err)

	assert.Len(t, result.Blocks, 1)
	require.Len(t, result.Failures, 1)
	assert.Empty(t, result.Failures[0].CID)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrBlockDecode)
}

func TestDecoder_RawAndUnsupportedCodecs(t *testing.T) {
	good := dagBlock(t, map[string]any{"name": "ok"})
	rawBody := []byte("plain bytes")
	raw := block{cid: cidBytes(byte(cid.Raw), rawBody), body: rawBody}
	pbBody := []byte{0x0a, 0x00}
	pb := block{cid: cidBytes(codecDagPB, pbBody), body: pbBody}

	result, err := NewDecoder().Decode(binary(container(t, good, raw, pb)))
	require.NoError(t, err)

	assert.Equal(t, rawBody, result.Blocks[cidString(t, raw.cid)])
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrUnsupportedCodec)
}

func TestDecoder_NonStringKeysFailBlock(t *testing.T) {
	body := mustCBOR(t, map[int]any{1: "x"})
	b := block{cid: cidBytes(byte(cid.DagCBOR), body), body: body}

	result, err := NewDecoder().Decode(binary(container(t, dagBlock(t, map[string]any{}), b)))
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrBlockDecode)
}

func TestDecoder_TextEncoding(t *testing.T) {
	b := dagBlock(t, map[string]any{"name": "text"})
	data := container(t, b)

	result, err := NewDecoder().Decode(domain.RawBlocks{Encoding: domain.EncodingText, Text: string(data)})
	require.NoError(t, err)
	assert.Len(t, result.Blocks, 1)
}

func TestDecoder_ContainerErrors(t *testing.T) {
	good := dagBlock(t, map[string]any{"name": "ok"})
	valid := container(t, good)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated header", data: valid[:3]},
		{name: "header not cbor", data: withLength([]byte{0xff, 0xff})},
		{name: "wrong version", data: withLength(mustCBOR(t, map[string]any{"version": 2, "roots": []cbor.Tag{}}))},
		{name: "truncated section", data: valid[:len(valid)-4]},
		{name: "bad length prefix", data: append(append([]byte{}, valid...), 0xff)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder().Decode(binary(tt.data))
			assert.ErrorIs(t, err, domain.ErrContainer)
		})
	}
}

func TestDecoder_HeaderOnly(t *testing.T) {
	result, err := NewDecoder().Decode(binary(container(t)))
	require.NoError(t, err)
	assert.Empty(t, result.Blocks)
	assert.Empty(t, result.Roots)
	assert.Empty(t, result.Failures)
}
