package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

func TestSchedulerStore_Tasks(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	missing, err := store.GetTask(ctx, domain.TaskIDReputationRecompute)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveTask(ctx, &domain.ScheduledTask{}), domain.ErrInvalidInput)

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDReputationRecompute, Interval: time.Hour}))
	got, err := store.GetTask(ctx, domain.TaskIDReputationRecompute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Hour, got.Interval)

	// The returned task is a copy.
	got.Interval = time.Minute
	again, err := store.GetTask(ctx, domain.TaskIDReputationRecompute)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, again.Interval)
}

func TestSchedulerStore_RunsAndPrune(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.RecordRun(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.RecordRun(ctx, &domain.TaskResult{TaskID: "x"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.PruneRuns(ctx, domain.TaskIDReputationRecompute, -1), domain.ErrInvalidInput)

	for i := range 5 {
		require.NoError(t, store.RecordRun(ctx, &domain.TaskResult{
			RunID:  fmt.Sprintf("run-%d", i),
			TaskID: domain.TaskIDReputationRecompute,
		}))
	}

	runs, err := store.RecentRuns(ctx, domain.TaskIDReputationRecompute, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].RunID)
	assert.Equal(t, "run-3", runs[1].RunID)

	none, err := store.RecentRuns(ctx, domain.TaskIDReputationRecompute, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.PruneRuns(ctx, domain.TaskIDReputationRecompute, 3))
	runs, err = store.RecentRuns(ctx, domain.TaskIDReputationRecompute, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-2", runs[2].RunID)
}
