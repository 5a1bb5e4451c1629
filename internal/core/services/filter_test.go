package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

func TestFilterRecords(t *testing.T) {
	targets := domain.NewTargetSet(domain.RecordTypeServer, "com.example.tool")
	blocks := domain.BlockMap{
		"bafy3": map[string]any{"$type": "com.example.tool", "name": "hammer"},
		"bafy1": serverBlock("did:plc:a", "alpha"),
		"bafy2": map[string]any{"$type": "app.bsky.feed.post"},
		"bafy4": map[string]any{"name": "no discriminator"},
		"bafy5": "a string block",
		"bafy6": map[string]any{"$type": 7},
	}

	result := FilterRecords(blocks, targets)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, 4, result.Dropped)

	assert.Equal(t, "bafy1", result.Matches[0].CID)
	assert.IsType(t, domain.ServerRecord{}, result.Matches[0].Record)

	assert.Equal(t, "bafy3", result.Matches[1].CID)
	assert.IsType(t, domain.TargetRecord{}, result.Matches[1].Record)
	assert.Equal(t, "com.example.tool", result.Matches[1].Record.Type())
}

func TestFilterRecords_Empty(t *testing.T) {
	result := FilterRecords(nil, domain.NewTargetSet(domain.RecordTypeServer))

	assert.Empty(t, result.Matches)
	assert.Zero(t, result.Dropped)
}

func TestFilterRecords_NoTargets(t *testing.T) {
	blocks := domain.BlockMap{"bafy1": serverBlock("did:plc:a", "alpha")}

	result := FilterRecords(blocks, domain.NewTargetSet())

	assert.Empty(t, result.Matches)
	assert.Equal(t, 1, result.Dropped)
}

func TestFilterRecords_KeepsFieldsIntact(t *testing.T) {
	block := serverBlock("did:plc:a", "alpha")
	block["tools"] = []any{map[string]any{"name": "search"}}

	result := FilterRecords(domain.BlockMap{"bafy1": block}, domain.NewTargetSet(domain.RecordTypeServer))

	require.Len(t, result.Matches, 1)
	assert.Equal(t, block, result.Matches[0].Record.Fields())
}
