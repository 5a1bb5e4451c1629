package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

func sampleEntries() []domain.ReputationEntry {
	return []domain.ReputationEntry{
		{Identity: "did:plc:old", Name: "weather", FirstSeen: seenFirst, LastSeen: seenLast, Score: 0.55},
		{Identity: "did:plc:new", Name: "unknown", FirstSeen: seenLast, LastSeen: seenLast, Score: 0.1},
	}
}

func TestReputationCmd_Structure(t *testing.T) {
	assert.Equal(t, "reputation", reputationCmd.Use)
	names := []string{}
	for _, c := range reputationCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"recompute", "show"}, names)
}

func TestReputationRecompute_PrintsSummary(t *testing.T) {
	a := testApp()
	svc := &mockReputation{result: &domain.ScanResult{
		RecordType: domain.RecordTypeServer,
		Partitions: 2,
		Files: []domain.FileOutcome{
			{Path: "a.json", Status: domain.FileApplied},
			{Path: "b.json", Status: domain.FileSkipped, Err: domain.ErrMissingIdentity},
		},
		Identities:     1,
		ScoreFailures:  []domain.ScoreFailure{{Identity: "did:plc:x", Err: domain.ErrScore}},
		DroppedEntries: []string{"did:plc:bad"},
	}}
	a.Reputation = svc

	out, err := runCLI(t, a, "reputation", "recompute", "--type", "app.mcp.client")

	require.NoError(t, err)
	assert.Equal(t, []string{"app.mcp.client"}, svc.recomputed)
	assert.Contains(t, out, "Scanned 2 files in 2 partitions")
	assert.Contains(t, out, "Applied: 1  Skipped: 1  Identities: 1")
	assert.Contains(t, out, "skipped b.json")
	assert.Contains(t, out, "score for did:plc:x set to 0")
	assert.Contains(t, out, "did:plc:bad")
}

func TestReputationRecompute_Failure(t *testing.T) {
	a := testApp()
	a.Reputation = &mockReputation{err: errors.New("disk full")}

	_, err := runCLI(t, a, "reputation", "recompute")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestReputationRecompute_DryRun(t *testing.T) {
	a := testApp()
	live := &mockReputation{}
	dry := &mockReputation{result: &domain.ScanResult{RecordType: domain.RecordTypeServer}}
	a.Reputation = live
	a.DryRun = dry

	out, err := runCLI(t, a, "reputation", "recompute", "--dry-run")

	require.NoError(t, err)
	assert.Empty(t, live.recomputed)
	assert.Equal(t, []string{""}, dry.recomputed)
	assert.Contains(t, out, "reputation file not written")
}

func TestReputationRecompute_DryRunUnavailable(t *testing.T) {
	a := testApp()
	a.Reputation = &mockReputation{}

	_, err := runCLI(t, a, "reputation", "recompute", "--dry-run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dry run is not available")
}

func TestReputationShow_List(t *testing.T) {
	a := testApp()
	svc := &mockReputation{entries: sampleEntries()}
	a.Reputation = svc

	out, err := runCLI(t, a, "reputation", "show", "--limit", "5", "--min-score", "0.1")

	require.NoError(t, err)
	assert.Equal(t, 5, svc.limit)
	assert.Equal(t, 0.1, svc.minScore)
	assert.Contains(t, out, "did:plc:old")
	assert.Contains(t, out, "0.550")
	assert.Contains(t, out, "2024-01-16")
}

func TestReputationShow_Empty(t *testing.T) {
	a := testApp()
	a.Reputation = &mockReputation{}

	out, err := runCLI(t, a, "reputation", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "No reputation entries")
}

func TestReputationShow_Identity(t *testing.T) {
	a := testApp()
	a.Reputation = &mockReputation{entries: sampleEntries()}

	out, err := runCLI(t, a, "reputation", "show", "did:plc:old")

	require.NoError(t, err)
	assert.Contains(t, out, "weather")
	assert.Contains(t, out, "2024-01-01T12:00:00Z")
}

func TestReputationShow_UnknownIdentity(t *testing.T) {
	a := testApp()
	a.Reputation = &mockReputation{}

	_, err := runCLI(t, a, "reputation", "show", "did:plc:nobody")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reputation recorded")
}

func TestScoreStyle(t *testing.T) {
	assert.Equal(t, highStyle.GetForeground(), scoreStyle(0.9).GetForeground())
	assert.Equal(t, midStyle.GetForeground(), scoreStyle(0.5).GetForeground())
	assert.Equal(t, lowStyle.GetForeground(), scoreStyle(0.1).GetForeground())
}
