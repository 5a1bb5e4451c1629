package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// RunID uniquely identifies the execution.
	RunID string

	// TaskID identifies which task was run.
	TaskID string

	// Trigger names what caused the run (startup, delay, interval, request).
	Trigger string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (record files folded).
	ItemsProcessed int

	// FilesSkipped is the number of record files the run could not use.
	FilesSkipped int

	// Identities is the number of scored publishers after the run.
	Identities int
}

// Duration is how long the run took.
func (r TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// RecomputeHistory is the recurring task state together with its most
// recent runs, newest first. Task is nil until a worker has run.
type RecomputeHistory struct {
	Task *ScheduledTask
	Runs []TaskResult
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// InitialDelay is the one-off delay after the startup run before the
	// second run.
	InitialDelay time.Duration

	// Watch requests a recompute whenever new record files appear.
	Watch bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      true,
		InitialDelay: 5 * time.Minute,
		TaskConfigs: map[string]TaskConfig{
			TaskIDReputationRecompute: {
				Enabled:  true,
				Interval: 1 * time.Hour,
			},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDReputationRecompute = "reputation-recompute"
)

// Triggers recorded on task results.
const (
	TriggerStartup  = "startup"
	TriggerDelay    = "delay"
	TriggerInterval = "interval"
	TriggerRequest  = "request"
)
