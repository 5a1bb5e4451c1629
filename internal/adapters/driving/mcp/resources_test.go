package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractIdentity(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid", uri: "skywatch://reputation/did:plc:abc", expected: "did:plc:abc"},
		{name: "invalid prefix", uri: "file://reputation/did:plc:abc", expected: ""},
		{name: "missing identity", uri: "skywatch://reputation/", expected: ""},
		{name: "nested path", uri: "skywatch://reputation/a/b", expected: ""},
		{name: "empty", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractIdentity(tt.uri))
		})
	}
}

func TestServer_handleReputationResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists every entry", func(t *testing.T) {
		svc := &mockReputationService{entries: sampleEntries()}
		server := newTestServer(t, &Ports{Reputation: svc})

		result, err := server.handleReputationResource(ctx, makeReadResourceRequest("skywatch://reputation"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "did:plc:old")
		assert.Contains(t, result.Contents[0].Text, `"reputation_score": 0.55`)
		assert.Equal(t, 0, svc.lastLimit)
	})

	t.Run("empty store", func(t *testing.T) {
		server := newTestServer(t, &Ports{Reputation: &mockReputationService{}})

		result, err := server.handleReputationResource(ctx, makeReadResourceRequest("skywatch://reputation"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("list error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Reputation: &mockReputationService{err: errors.New("boom")}})

		_, err := server.handleReputationResource(ctx, makeReadResourceRequest("skywatch://reputation"))
		assert.Error(t, err)
	})
}

func TestServer_handleIdentityResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Reputation: &mockReputationService{entries: sampleEntries()}})

	t.Run("known identity", func(t *testing.T) {
		result, err := server.handleIdentityResource(ctx, makeReadResourceRequest("skywatch://reputation/did:plc:new"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"name": "unknown"`)
	})

	t.Run("unknown identity", func(t *testing.T) {
		_, err := server.handleIdentityResource(ctx, makeReadResourceRequest("skywatch://reputation/did:plc:nobody"))
		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, err := server.handleIdentityResource(ctx, makeReadResourceRequest("skywatch://reputation/"))
		assert.Error(t, err)
	})
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()
	uri := "skywatch://recompute/history"

	t.Run("task and runs", func(t *testing.T) {
		history := &mockHistory{history: &domain.RecomputeHistory{
			Task: &domain.ScheduledTask{
				ID:       domain.TaskIDReputationRecompute,
				Interval: time.Hour,
				Enabled:  true,
				LastRun:  lastSeen,
				NextRun:  lastSeen.Add(time.Hour),
			},
			Runs: []domain.TaskResult{{
				RunID:          "0b9c6f5e-run",
				Trigger:        domain.TriggerRequest,
				StartedAt:      lastSeen,
				EndedAt:        lastSeen.Add(1500 * time.Millisecond),
				Success:        true,
				ItemsProcessed: 12,
				FilesSkipped:   1,
				Identities:     4,
			}},
		}}
		server := newTestServer(t, &Ports{Reputation: &mockReputationService{}, History: history})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, historyResourceLimit, history.lastLimit)

		var out HistoryOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
		assert.Equal(t, "1h0m0s", out.Interval)
		assert.Equal(t, "2024-01-16T13:00:00Z", out.NextRun)
		assert.Empty(t, out.LastSuccess)
		require.Len(t, out.Runs, 1)
		assert.Equal(t, RunOutput{
			RunID:        "0b9c6f5e-run",
			Trigger:      domain.TriggerRequest,
			StartedAt:    "2024-01-16T12:00:00Z",
			DurationMS:   1500,
			Success:      true,
			FilesApplied: 12,
			FilesSkipped: 1,
			Identities:   4,
		}, out.Runs[0])
	})

	t.Run("nothing recorded", func(t *testing.T) {
		history := &mockHistory{history: &domain.RecomputeHistory{}}
		server := newTestServer(t, &Ports{Reputation: &mockReputationService{}, History: history})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"runs": []`)
		assert.NotContains(t, result.Contents[0].Text, "interval")
	})

	t.Run("store error", func(t *testing.T) {
		history := &mockHistory{err: errors.New("database is locked")}
		server := newTestServer(t, &Ports{Reputation: &mockReputationService{}, History: history})

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest(uri))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})
}

func TestFormatTime(t *testing.T) {
	assert.Empty(t, formatTime(time.Time{}))
	assert.Equal(t, "2024-01-16T12:00:00Z", formatTime(lastSeen))
}
