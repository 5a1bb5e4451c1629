package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"firehose.record_types": []string{"app.mcp.server"},
		"reputation.base_score": 0.2,
	})

	assert.Equal(t, []string{"app.mcp.server"}, store.GetStringSlice("firehose.record_types"))
	assert.InDelta(t, 0.2, store.GetFloat("reputation.base_score"), 1e-9)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("firehose.url", "wss://relay.example/xrpc"))
	require.NoError(t, store.Set("firehose.max_runtime_seconds", int64(600)))
	require.NoError(t, store.Set("reputation.max_age_days", 30.0))
	require.NoError(t, store.Set("reputation.max_age_score", 1))
	require.NoError(t, store.Set("scheduler.watch", true))
	require.NoError(t, store.Set("firehose.record_types", []any{"a.b", 7, "c.d"}))

	assert.Equal(t, "wss://relay.example/xrpc", store.GetString("firehose.url"))
	assert.Equal(t, 600, store.GetInt("firehose.max_runtime_seconds"))
	assert.Equal(t, 30, store.GetInt("reputation.max_age_days"))
	assert.InDelta(t, 1.0, store.GetFloat("reputation.max_age_score"), 1e-9)
	assert.True(t, store.GetBool("scheduler.watch"))
	assert.Equal(t, []string{"a.b", "c.d"}, store.GetStringSlice("firehose.record_types"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore(map[string]any{"k": struct{}{}})

	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))

	assert.Empty(t, store.GetString("k"))
	assert.Zero(t, store.GetInt("k"))
	assert.Zero(t, store.GetFloat("k"))
	assert.False(t, store.GetBool("k"))
	assert.Nil(t, store.GetStringSlice("k"))
}

func TestConfigStore_SaveLoadNoOp(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("storage.base_path", "/data"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "/data", store.GetString("storage.base_path"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("reputation.max_age_days", i)
			_ = store.GetInt("reputation.max_age_days")
		}()
	}
	wg.Wait()

	_, ok := store.Get("reputation.max_age_days")
	assert.True(t, ok)
}

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}
