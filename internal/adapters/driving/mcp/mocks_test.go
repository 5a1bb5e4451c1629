package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

var (
	firstSeen = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lastSeen  = time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC)
)

// mockReputationService is a mock implementation of driving.ReputationService.
type mockReputationService struct {
	entries []domain.ReputationEntry
	err     error

	lastLimit    int
	lastMinScore float64
}

func (m *mockReputationService) Recompute(_ context.Context, _ string) (*domain.ScanResult, error) {
	return &domain.ScanResult{}, m.err
}

func (m *mockReputationService) Get(_ context.Context, identity string) (*domain.ReputationEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.entries {
		if m.entries[i].Identity == identity {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReputationService) List(_ context.Context, limit int, minScore float64) ([]domain.ReputationEntry, error) {
	m.lastLimit = limit
	m.lastMinScore = minScore
	return m.entries, m.err
}

// mockTrigger is a mock implementation of driving.RecomputeTrigger.
type mockTrigger struct {
	accept  bool
	reasons []string
}

func (m *mockTrigger) Request(reason string) bool {
	m.reasons = append(m.reasons, reason)
	return m.accept
}

func sampleEntries() []domain.ReputationEntry {
	return []domain.ReputationEntry{
		{Identity: "did:plc:old", Name: "weather", FirstSeen: firstSeen, LastSeen: lastSeen, Score: 0.55},
		{Identity: "did:plc:new", Name: "unknown", FirstSeen: lastSeen, LastSeen: lastSeen, Score: 0.1},
	}
}

// mockHistory is a mock implementation of driving.RecomputeHistory.
type mockHistory struct {
	history   *domain.RecomputeHistory
	err       error
	lastLimit int
}

func (m *mockHistory) History(_ context.Context, limit int) (*domain.RecomputeHistory, error) {
	m.lastLimit = limit
	return m.history, m.err
}
