package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// Ensure Consumer implements the interface.
var _ driving.Consumer = (*Consumer)(nil)

// Consumer drives the firehose loop: frame -> envelope -> blocks -> filter
// -> concurrent writes. Commits are handled strictly in arrival order and
// every write of commit n completes before commit n+1 is decoded.
type Consumer struct {
	cfg       domain.FirehoseConfig
	targets   domain.TargetSet
	transport driven.Transport
	envelopes driven.EnvelopeDecoder
	blocks    driven.BlockDecoder
	writer    driven.RecordWriter
	metrics   driven.Metrics
	log       *slog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	status domain.ConsumerStatus
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerClock replaces time.Now.
func WithConsumerClock(now func() time.Time) ConsumerOption {
	return func(c *Consumer) { c.now = now }
}

// WithConsumerMetrics attaches a metrics sink.
func WithConsumerMetrics(m driven.Metrics) ConsumerOption {
	return func(c *Consumer) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewConsumer creates a firehose consumer.
func NewConsumer(
	cfg domain.FirehoseConfig,
	transport driven.Transport,
	envelopes driven.EnvelopeDecoder,
	blocks driven.BlockDecoder,
	writer driven.RecordWriter,
	log *slog.Logger,
	opts ...ConsumerOption,
) *Consumer {
	c := &Consumer{
		cfg:       cfg,
		targets:   domain.NewTargetSet(cfg.RecordTypes...),
		transport: transport,
		envelopes: envelopes,
		blocks:    blocks,
		writer:    writer,
		metrics:   nopMetrics{},
		log:       logger.Component(log, "firehose"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run subscribes and processes commits until stopped. Only a transport
// failure is returned, wrapped in domain.ErrTransport.
func (c *Consumer) Run(ctx context.Context) error {
	c.begin()
	c.log.Info("starting firehose consumer",
		"run_id", c.Status().RunID,
		"types", c.targets.Sorted(),
		"max_runtime", c.cfg.MaxRuntime)

	// External shutdown closes the transport, which unblocks Start.
	started := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			c.requestStop("shutdown requested")
		case <-started:
		}
	}()

	c.log.Info("connecting to firehose")
	err := c.transport.Start(ctx, c.handleFrame, c.handleError)
	close(started)
	<-watchDone

	if err != nil && c.State() != domain.StateStopping {
		c.setState(domain.StateFailed)
		c.log.Error("firehose transport failed", "error", err)
		if stopErr := c.transport.Stop(); stopErr != nil {
			c.log.Warn("stopping transport after failure", "error", stopErr)
		}
		c.finish()
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	if err != nil {
		c.log.Debug("transport returned while stopping", "error", err)
	}

	c.finish()
	return nil
}

// State returns the current state.
func (c *Consumer) State() domain.ConsumerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.State
}

// Status returns a snapshot of progress counters.
func (c *Consumer) Status() domain.ConsumerStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// ProcessCommit decodes, filters and persists one commit. All writes have
// completed when it returns.
func (c *Consumer) ProcessCommit(ctx context.Context, commit *domain.Commit) domain.CommitResult {
	result := domain.CommitResult{Seq: commit.Seq, Repo: commit.Repo}

	if commit.TooBig {
		return skipCommit(result, "commit too big, blocks omitted upstream")
	}
	if commit.Blocks.Empty() {
		return skipCommit(result, "no blocks")
	}

	decoded, err := c.blocks.Decode(commit.Blocks)
	if err != nil {
		c.log.Error("skipping commit with malformed block container",
			"seq", commit.Seq, "repo", commit.Repo, "error", err)
		return skipCommit(result, err.Error())
	}

	result.Blocks = len(decoded.Blocks)
	result.BlockFailures = decoded.Failures
	for _, f := range decoded.Failures {
		c.log.Warn("skipping undecodable block",
			"seq", commit.Seq, "index", f.Index, "cid", f.CID, "error", f.Err)
	}

	filtered := FilterRecords(decoded.Blocks, c.targets)
	result.Dropped = filtered.Dropped
	result.Writes = c.writeAll(ctx, commit.Seq, filtered.Matches)
	return result
}

// writeAll runs one write per match and waits for all of them. Writes
// are detached from cancellation so a stop drains the current commit.
func (c *Consumer) writeAll(ctx context.Context, seq int64, matches []Match) []domain.WriteOutcome {
	if len(matches) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	outcomes := make([]domain.WriteOutcome, len(matches))
	var wg sync.WaitGroup
	for i, m := range matches {
		req := domain.WriteRequest{Record: m.Record, Seq: seq, At: c.now()}
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = c.writer.Write(ctx, req)
		}()
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.Status != domain.WriteOK {
			c.log.Error("failed to save record",
				"type", o.Type, "seq", seq, "path", o.Path, "error", o.Err)
			continue
		}
		c.log.Info("saved record",
			"type", o.Type, "name", recordName(matches[i].Record), "path", o.Path)
	}
	return outcomes
}

func (c *Consumer) handleFrame(ctx context.Context, frame []byte) error {
	if !c.noteFrame() {
		c.log.Debug("ignoring frame while stopping")
		return nil
	}
	c.metrics.FrameReceived()

	commit, err := c.envelopes.Decode(frame)
	switch {
	case errors.Is(err, domain.ErrUpstream):
		c.log.Error("firehose sent error frame", "error", err)
	case err != nil:
		c.log.Warn("skipping undecodable frame", "error", err)
	case commit != nil:
		c.recordCommit(c.ProcessCommit(ctx, commit))
	}

	c.checkRuntime()
	return nil
}

func (c *Consumer) handleError(err error) {
	c.log.Error("firehose error", "error", err)
}

// checkRuntime stops the loop once the max runtime has elapsed. It runs
// between frames only.
func (c *Consumer) checkRuntime() {
	if c.cfg.MaxRuntime <= 0 {
		return
	}
	if c.now().Sub(c.Status().StartedAt) > c.cfg.MaxRuntime {
		c.requestStop("max runtime reached")
	}
}

func (c *Consumer) requestStop(reason string) {
	c.mu.Lock()
	switch c.status.State {
	case domain.StateConnecting, domain.StateStreaming:
		c.status.State = domain.StateStopping
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.log.Info("stopping firehose consumer", "reason", reason)
	if err := c.transport.Stop(); err != nil {
		c.log.Warn("stopping transport", "error", err)
	}
}

func (c *Consumer) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = domain.ConsumerStatus{
		RunID:     uuid.NewString(),
		State:     domain.StateConnecting,
		StartedAt: c.now(),
	}
}

func (c *Consumer) finish() {
	c.setState(domain.StateStopped)
	s := c.Status()
	c.log.Info("firehose consumer stopped",
		"frames", s.Frames,
		"commits", s.Commits,
		"skipped_commits", s.SkippedCommits,
		"records_written", s.RecordsWritten,
		"write_failures", s.WriteFailures)
}

func (c *Consumer) setState(state domain.ConsumerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = state
}

// noteFrame counts a frame and moves Connecting to Streaming. It reports
// false once a stop has been requested.
func (c *Consumer) noteFrame() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status.State {
	case domain.StateConnecting:
		c.status.State = domain.StateStreaming
	case domain.StateStreaming:
	default:
		return false
	}
	c.status.Frames++
	return true
}

func (c *Consumer) recordCommit(result domain.CommitResult) {
	c.mu.Lock()
	c.status.LastSeq = result.Seq
	if result.Skipped {
		c.status.SkippedCommits++
	} else {
		c.status.Commits++
	}
	c.status.BlockFailures += len(result.BlockFailures)
	c.status.RecordsWritten += result.Written()
	c.status.WriteFailures += result.WriteFailures()
	c.mu.Unlock()

	c.metrics.CommitProcessed(result)
}

func skipCommit(result domain.CommitResult, reason string) domain.CommitResult {
	result.Skipped = true
	result.SkipReason = reason
	return result
}

func recordName(rec domain.Record) string {
	if s, ok := rec.(domain.ServerRecord); ok && s.Name() != "" {
		return s.Name()
	}
	if name, ok := rec.Fields()["name"].(string); ok && name != "" {
		return name
	}
	return domain.UnknownName
}
