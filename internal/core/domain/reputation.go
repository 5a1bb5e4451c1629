package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// UnknownName is stored when a record carries no display name.
const UnknownName = "unknown"

// Scoring holds the constants of the longevity heuristic.
type Scoring struct {
	// BaseScore is awarded to every observed identity.
	BaseScore float64

	// MaxAgeScore is the most that age can add on top of BaseScore.
	MaxAgeScore float64

	// MaxAgeDays is the age at which MaxAgeScore is reached.
	MaxAgeDays int
}

// DefaultScoring returns the stock scoring constants.
func DefaultScoring() Scoring {
	return Scoring{
		BaseScore:   0.1,
		MaxAgeScore: 0.9,
		MaxAgeDays:  30,
	}
}

// Validate checks the constants can produce finite scores.
func (s Scoring) Validate() error {
	if s.MaxAgeDays <= 0 {
		return fmt.Errorf("%w: max age days must be positive, got %d", ErrInvalidConfig, s.MaxAgeDays)
	}
	if s.BaseScore < 0 || s.MaxAgeScore < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidConfig)
	}
	if math.IsNaN(s.BaseScore) || math.IsNaN(s.MaxAgeScore) ||
		math.IsInf(s.BaseScore, 0) || math.IsInf(s.MaxAgeScore, 0) {
		return fmt.Errorf("%w: scores must be finite", ErrInvalidConfig)
	}
	return nil
}

// Floor returns the score of an identity seen only once.
func (s Scoring) Floor() float64 {
	return roundScore(s.BaseScore)
}

// Ceiling returns the score of an identity at or past MaxAgeDays.
func (s Scoring) Ceiling() float64 {
	return roundScore(s.BaseScore + s.MaxAgeScore)
}

// Score computes the longevity score for an observation window:
//
//	age_days  = whole days between first and last
//	age_score = min(MaxAgeScore, age_days / MaxAgeDays * MaxAgeScore)
//	score     = round(BaseScore + age_score, 3)
//
// clamped to [Floor, Ceiling].
func (s Scoring) Score(first, last time.Time) (float64, error) {
	if first.IsZero() || last.IsZero() {
		return 0, fmt.Errorf("%w: missing observation time", ErrScore)
	}
	if last.Before(first) {
		return 0, fmt.Errorf("%w: last seen %s precedes first seen %s",
			ErrScore, last.Format(time.RFC3339), first.Format(time.RFC3339))
	}
	if s.MaxAgeDays <= 0 {
		return 0, fmt.Errorf("%w: max age days is %d", ErrScore, s.MaxAgeDays)
	}

	ageDays := int64(last.Sub(first) / (24 * time.Hour))
	ageScore := math.Min(s.MaxAgeScore, float64(ageDays)/float64(s.MaxAgeDays)*s.MaxAgeScore)
	score := roundScore(s.BaseScore + ageScore)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: non-finite result", ErrScore)
	}

	return math.Min(s.Ceiling(), math.Max(s.Floor(), score)), nil
}

func roundScore(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ReputationEntry is the longevity state of one publisher identity.
type ReputationEntry struct {
	// Identity is the publisher identity. It is the map key when stored.
	Identity string

	// FirstSeen is the first observation. It never changes once set.
	FirstSeen time.Time

	// LastSeen is the latest observation. It never decreases.
	LastSeen time.Time

	// Name is the display name recorded at first observation.
	Name string

	// Score is derived from FirstSeen and LastSeen.
	Score float64
}

// ReputationMap is the whole reputation store, keyed by identity.
type ReputationMap map[string]ReputationEntry

// Observe folds one observation into the map. A new identity starts with
// FirstSeen = LastSeen = at; a known identity only moves LastSeen forward.
// It reports whether the identity was created.
func (m ReputationMap) Observe(identity, name string, at time.Time) bool {
	at = at.UTC()
	entry, ok := m[identity]
	if !ok {
		if name == "" {
			name = UnknownName
		}
		m[identity] = ReputationEntry{
			Identity:  identity,
			FirstSeen: at,
			LastSeen:  at,
			Name:      name,
		}
		return true
	}

	if at.After(entry.LastSeen) {
		entry.LastSeen = at
		m[identity] = entry
	}
	return false
}

// Rescore recomputes an identity's score. On failure the score is set to
// 0.0 and the error is returned for reporting.
func (m ReputationMap) Rescore(identity string, scoring Scoring) error {
	entry, ok := m[identity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, identity)
	}

	score, err := scoring.Score(entry.FirstSeen, entry.LastSeen)
	if err != nil {
		entry.Score = 0
		m[identity] = entry
		return err
	}
	entry.Score = score
	m[identity] = entry
	return nil
}

// Identities returns the keys in lexical order.
func (m ReputationMap) Identities() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns the entries ordered by descending score, then identity.
func (m ReputationMap) Entries() []ReputationEntry {
	entries := make([]ReputationEntry, 0, len(m))
	for id, e := range m {
		e.Identity = id
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Identity < entries[j].Identity
	})
	return entries
}
