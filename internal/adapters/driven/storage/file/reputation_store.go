package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure ReputationStore implements the interface.
var _ driven.ReputationStore = (*ReputationStore)(nil)

// ReputationStore keeps the reputation map in one JSON file:
//
//	{"<identity>": {"first_seen": "...", "last_seen": "...", "name": "...", "reputation_score": 0.55}}
//
// Timestamps are RFC 3339 in UTC. Keys are written in sorted order so an
// unchanged map always serialises to identical bytes.
type ReputationStore struct {
	path string
}

// NewReputationStore creates a store at path.
func NewReputationStore(path string) *ReputationStore {
	return &ReputationStore{path: path}
}

type storedEntry struct {
	FirstSeen string  `json:"first_seen"`
	LastSeen  string  `json:"last_seen"`
	Name      string  `json:"name"`
	Score     float64 `json:"reputation_score"`
}

// Path returns the file path.
func (s *ReputationStore) Path() string {
	return s.path
}

// Load reads the file. A missing file is an empty map. Entries whose
// timestamps do not parse are dropped and reported.
func (s *ReputationStore) Load(_ context.Context) (domain.ReputationMap, []string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(domain.ReputationMap), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read reputation store: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: reputation store %s: %v", domain.ErrInvalidInput, s.path, err)
	}

	entries := make(domain.ReputationMap, len(raw))
	var dropped []string
	for id, msg := range raw {
		entry, err := decodeEntry(id, msg)
		if err != nil {
			dropped = append(dropped, id)
			continue
		}
		entries[id] = entry
	}
	sort.Strings(dropped)
	return entries, dropped, nil
}

func decodeEntry(id string, msg json.RawMessage) (domain.ReputationEntry, error) {
	var se storedEntry
	if err := json.Unmarshal(msg, &se); err != nil {
		return domain.ReputationEntry{}, err
	}
	first, err := time.Parse(time.RFC3339, se.FirstSeen)
	if err != nil {
		return domain.ReputationEntry{}, err
	}
	last, err := time.Parse(time.RFC3339, se.LastSeen)
	if err != nil {
		return domain.ReputationEntry{}, err
	}
	return domain.ReputationEntry{
		Identity:  id,
		FirstSeen: first.UTC(),
		LastSeen:  last.UTC(),
		Name:      se.Name,
		Score:     se.Score,
	}, nil
}

// Save replaces the file with entries. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func (s *ReputationStore) Save(_ context.Context, entries domain.ReputationMap) error {
	out := make(map[string]storedEntry, len(entries))
	for id, e := range entries {
		out[id] = storedEntry{
			FirstSeen: e.FirstSeen.UTC().Format(time.RFC3339),
			LastSeen:  e.LastSeen.UTC().Format(time.RFC3339),
			Name:      e.Name,
			Score:     e.Score,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reputation store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reputation directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".reputation-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod reputation store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write reputation store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close reputation store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace reputation store: %w", err)
	}
	return nil
}
