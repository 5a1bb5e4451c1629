package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Equal(t, 5*time.Minute, config.InitialDelay)
	assert.False(t, config.Watch)
	assert.Len(t, config.TaskConfigs, 1)

	recompute := config.TaskConfigs[TaskIDReputationRecompute]
	assert.True(t, recompute.Enabled)
	assert.Equal(t, 1*time.Hour, recompute.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	// Existing task
	cfg := config.GetTaskConfig(TaskIDReputationRecompute)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1*time.Hour, cfg.Interval)

	// Non-existent task
	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: nil,
	}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "reputation-recompute", TaskIDReputationRecompute)
	assert.Equal(t, "startup", TriggerStartup)
	assert.Equal(t, "delay", TriggerDelay)
	assert.Equal(t, "interval", TriggerInterval)
	assert.Equal(t, "request", TriggerRequest)
}

func TestTaskResult_Failed(t *testing.T) {
	now := time.Now()
	result := TaskResult{
		RunID:          "run-1",
		TaskID:         TaskIDReputationRecompute,
		Trigger:        TriggerInterval,
		StartedAt:      now.Add(-5 * time.Minute),
		EndedAt:        now,
		Success:        false,
		Error:          "disk full",
		ItemsProcessed: 0,
	}

	assert.False(t, result.Success)
	assert.Equal(t, "disk full", result.Error)
	assert.Equal(t, TriggerInterval, result.Trigger)
}

func TestTaskResult_Duration(t *testing.T) {
	start := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 90*time.Second, TaskResult{StartedAt: start, EndedAt: start.Add(90 * time.Second)}.Duration())
	assert.Zero(t, TaskResult{StartedAt: start}.Duration())
}
