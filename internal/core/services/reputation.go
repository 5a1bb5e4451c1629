package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// Ensure ReputationEngine implements the interface.
var _ driving.ReputationService = (*ReputationEngine)(nil)

// ReputationEngine folds the persisted record corpus into per-identity
// longevity scores. Each pass is a full re-aggregation over the existing
// store: running it twice on an unchanged corpus writes identical output.
//
// The engine does no locking of its own. Callers serialize passes; the
// Scheduler runs at most one at a time.
type ReputationEngine struct {
	cfg     domain.ReputationConfig
	corpus  driven.RecordCorpus
	store   driven.ReputationStore
	metrics driven.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// ReputationOption customises a ReputationEngine.
type ReputationOption func(*ReputationEngine)

// WithReputationMetrics attaches a metrics sink.
func WithReputationMetrics(m driven.Metrics) ReputationOption {
	return func(e *ReputationEngine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithReputationClock replaces time.Now for elapsed-time reporting.
func WithReputationClock(now func() time.Time) ReputationOption {
	return func(e *ReputationEngine) { e.now = now }
}

// NewReputationEngine creates a reputation engine.
func NewReputationEngine(
	cfg domain.ReputationConfig,
	corpus driven.RecordCorpus,
	store driven.ReputationStore,
	log *slog.Logger,
	opts ...ReputationOption,
) *ReputationEngine {
	e := &ReputationEngine{
		cfg:     cfg,
		corpus:  corpus,
		store:   store,
		metrics: nopMetrics{},
		log:     logger.Component(log, "reputation"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute walks every record file of recordType, updates first/last-seen
// times, rescores every identity and overwrites the store.
//
//nolint:gocognit // Scan orchestration with per-file and per-identity containment
func (e *ReputationEngine) Recompute(ctx context.Context, recordType string) (*domain.ScanResult, error) {
	if recordType == "" {
		recordType = e.cfg.RecordType
	}
	started := e.now()
	e.log.Info("processing records", "type", recordType)

	entries, dropped, err := e.store.Load(ctx)
	if err != nil {
		e.metrics.RecomputeFinished(domain.ScanResult{RecordType: recordType}, e.now().Sub(started), err)
		return nil, fmt.Errorf("load reputation store: %w", err)
	}
	for _, id := range dropped {
		e.log.Warn("dropping unparseable reputation entry", "identity", id)
	}

	result := &domain.ScanResult{
		RecordType:     recordType,
		DroppedEntries: dropped,
	}
	partitions := make(map[string]struct{})

	walkErr := e.corpus.Walk(ctx, recordType, func(rec driven.StoredRecord) error {
		partitions[rec.Partition] = struct{}{}
		outcome := e.fold(entries, rec)
		if outcome.Status == domain.FileSkipped {
			e.log.Warn("skipping record file", "path", rec.Path, "error", outcome.Err)
		}
		result.Files = append(result.Files, outcome)
		return nil
	})
	if walkErr != nil {
		e.metrics.RecomputeFinished(*result, e.now().Sub(started), walkErr)
		return nil, fmt.Errorf("walk record tree: %w", walkErr)
	}

	for _, id := range entries.Identities() {
		if err := entries.Rescore(id, e.cfg.Scoring); err != nil {
			e.log.Error("error calculating longevity score", "identity", id, "error", err)
			result.ScoreFailures = append(result.ScoreFailures, domain.ScoreFailure{Identity: id, Err: err})
			continue
		}
		entry := entries[id]
		e.log.Debug("updated reputation",
			"identity", id, "name", entry.Name, "score", entry.Score)
	}

	result.Partitions = len(partitions)
	result.Identities = len(entries)

	if err := e.store.Save(ctx, entries); err != nil {
		e.metrics.RecomputeFinished(*result, e.now().Sub(started), err)
		return result, fmt.Errorf("save reputation store: %w", err)
	}

	elapsed := e.now().Sub(started)
	e.metrics.RecomputeFinished(*result, elapsed, nil)
	e.log.Info("processing complete",
		"type", recordType,
		"partitions", result.Partitions,
		"files", len(result.Files),
		"applied", result.Applied(),
		"skipped", result.Skipped(),
		"identities", result.Identities,
		"score_failures", len(result.ScoreFailures),
		"elapsed", elapsed)
	return result, nil
}

// fold applies one record file to the map.
func (e *ReputationEngine) fold(entries domain.ReputationMap, rec driven.StoredRecord) domain.FileOutcome {
	outcome := domain.FileOutcome{Path: rec.Path, Status: domain.FileSkipped}

	if rec.ReadErr != nil {
		outcome.Err = rec.ReadErr
		return outcome
	}

	var data map[string]any
	if err := json.Unmarshal(rec.Content, &data); err != nil {
		outcome.Err = fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		return outcome
	}

	identity, _ := data[e.cfg.IdentityField].(string)
	if identity == "" {
		outcome.Err = fmt.Errorf("%w: field %q", domain.ErrMissingIdentity, e.cfg.IdentityField)
		return outcome
	}
	outcome.Identity = identity

	at, err := domain.ParseRecordTimestamp(rec.Partition, rec.Name)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	name, _ := data[e.cfg.NameField].(string)
	entries.Observe(identity, name, at)
	outcome.Status = domain.FileApplied
	return outcome
}

// Get returns the stored entry for identity.
func (e *ReputationEngine) Get(ctx context.Context, identity string) (*domain.ReputationEntry, error) {
	entries, _, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reputation store: %w", err)
	}

	entry, ok := entries[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, identity)
	}
	entry.Identity = identity
	return &entry, nil
}

// List returns stored entries scoring at least minScore, best first.
func (e *ReputationEngine) List(ctx context.Context, limit int, minScore float64) ([]domain.ReputationEntry, error) {
	entries, _, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reputation store: %w", err)
	}

	out := make([]domain.ReputationEntry, 0, len(entries))
	for _, entry := range entries.Entries() {
		if entry.Score < minScore {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
