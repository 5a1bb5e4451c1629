package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// historyRetention is the number of task results kept per task.
const historyRetention = 100

// Ensure Scheduler implements the interfaces.
var (
	_ driving.Scheduler        = (*Scheduler)(nil)
	_ driving.RecomputeTrigger = (*Scheduler)(nil)
)

// Scheduler runs reputation recomputes. Every trigger (startup, the one-off
// initial delay, the persisted recurring task and on-demand requests) feeds a
// single executor goroutine through a one-slot channel, so at most one
// recompute is in flight and at most one is pending.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	reputation driving.ReputationService
	recordType string
	log        *slog.Logger
	limiter    *rate.Limiter
	now        func() time.Time
	tick       time.Duration

	pending chan string

	mu       sync.Mutex
	running  bool
	trailing bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock replaces time.Now.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithSchedulerTick sets how often the persisted task is checked for being due.
func WithSchedulerTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithRequestLimiter throttles on-demand Request calls.
func WithRequestLimiter(l *rate.Limiter) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.limiter = l
		}
	}
}

// NewScheduler creates a recompute scheduler for recordType.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	reputation driving.ReputationService,
	recordType string,
	log *slog.Logger,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:     config,
		store:      store,
		reputation: reputation,
		recordType: recordType,
		log:        logger.Component(log, "scheduler"),
		limiter:    rate.NewLimiter(rate.Every(10*time.Second), 1),
		now:        time.Now,
		tick:       time.Minute,
		pending:    make(chan string, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		s.log.Warn("failed to initialise tasks", "error", err)
	}

	s.wg.Add(1)
	go s.execute(ctx, stopCh)

	return s.run(ctx, stopCh)
}

// Stop shuts the scheduler down and waits for an in-flight recompute.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Request asks for an out-of-schedule recompute. A request made while one
// is already pending is folded into it. A throttled request is deferred
// until the limiter allows it, and later throttled requests fold into that
// one. It reports false when the scheduler is not running or the limiter
// can never allow the request.
func (s *Scheduler) Request(reason string) bool {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return false
	}
	if !s.limiter.Allow() {
		return s.deferRequest(reason)
	}
	s.log.Debug("recompute requested", "reason", reason)
	s.enqueue(domain.TriggerRequest)
	return true
}

// deferRequest queues one trailing request for when the limiter next
// allows it.
func (s *Scheduler) deferRequest(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	if s.trailing {
		s.log.Debug("recompute request folded into deferred request", "reason", reason)
		return true
	}
	r := s.limiter.Reserve()
	if !r.OK() {
		s.log.Debug("recompute request throttled", "reason", reason)
		return false
	}

	delay := r.Delay()
	stopCh := s.stopCh
	s.trailing = true
	s.log.Debug("recompute request deferred", "reason", reason, "delay", delay)

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-stopCh:
		case <-timer.C:
			s.enqueue(domain.TriggerRequest)
		}
		s.mu.Lock()
		s.trailing = false
		s.mu.Unlock()
	}()
	return true
}

// enqueue hands a trigger to the executor without blocking. It reports
// false if a run was already pending.
func (s *Scheduler) enqueue(trigger string) bool {
	select {
	case s.pending <- trigger:
		return true
	default:
		s.log.Debug("recompute already pending", "trigger", trigger)
		return false
	}
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	taskCfg := s.config.GetTaskConfig(domain.TaskIDReputationRecompute)
	if !taskCfg.Enabled || taskCfg.Interval <= 0 {
		return nil
	}
	return s.ensureTask(ctx, domain.TaskIDReputationRecompute, "Reputation Recompute", taskCfg)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run feeds scheduled triggers to the executor.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	var delay <-chan time.Time
	if s.config.Enabled {
		s.enqueue(domain.TriggerStartup)
		if s.config.InitialDelay > 0 {
			timer := time.NewTimer(s.config.InitialDelay)
			defer timer.Stop()
			delay = timer.C
		}
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-delay:
			delay = nil
			s.enqueue(domain.TriggerDelay)
		case <-ticker.C:
			if s.config.Enabled && s.taskDue(ctx) {
				s.enqueue(domain.TriggerInterval)
			}
		}
	}
}

// taskDue reports whether the persisted recurring task should run.
func (s *Scheduler) taskDue(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	task, err := s.store.GetTask(ctx, domain.TaskIDReputationRecompute)
	if err != nil {
		s.log.Warn("failed to load task", "task", domain.TaskIDReputationRecompute, "error", err)
		return false
	}
	if task == nil || !task.Enabled {
		return false
	}
	return !task.NextRun.After(s.now())
}

// execute is the single executor. It is the only caller of Recompute.
func (s *Scheduler) execute(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case trigger := <-s.pending:
			s.runRecompute(ctx, trigger)
		}
	}
}

// runRecompute executes one recompute and records its result.
func (s *Scheduler) runRecompute(ctx context.Context, trigger string) {
	result := &domain.TaskResult{
		RunID:     uuid.NewString(),
		TaskID:    domain.TaskIDReputationRecompute,
		Trigger:   trigger,
		StartedAt: s.now(),
	}
	s.log.Info("running reputation recompute", "run_id", result.RunID, "trigger", trigger)

	scan, err := s.reputation.Recompute(ctx, s.recordType)
	result.EndedAt = s.now()
	if scan != nil {
		result.ItemsProcessed = scan.Applied()
		result.FilesSkipped = scan.Skipped()
		result.Identities = scan.Identities
	}
	if err != nil {
		result.Error = err.Error()
		s.log.Error("reputation recompute failed", "run_id", result.RunID, "error", err)
	} else {
		result.Success = true
	}

	s.persist(ctx, result)
}

// persist updates the recurring task and appends to the run history. Any
// run pushes the next interval run out.
func (s *Scheduler) persist(ctx context.Context, result *domain.TaskResult) {
	if s.store == nil {
		return
	}

	task, err := s.store.GetTask(ctx, result.TaskID)
	if err != nil {
		s.log.Warn("failed to load task", "task", result.TaskID, "error", err)
	}
	if task != nil {
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		if result.Success {
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		} else {
			task.LastError = result.Error
		}
		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			s.log.Warn("failed to save task", "task", task.ID, "error", saveErr)
		}
	}

	if recordErr := s.store.RecordRun(ctx, result); recordErr != nil {
		s.log.Warn("failed to record run", "task", result.TaskID, "error", recordErr)
	}
	if pruneErr := s.store.PruneRuns(ctx, result.TaskID, historyRetention); pruneErr != nil {
		s.log.Warn("failed to prune runs", "error", pruneErr)
	}
}
