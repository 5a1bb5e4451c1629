package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
)

func TestConsumeCmd_Use(t *testing.T) {
	assert.Equal(t, "consume", consumeCmd.Use)
	assert.Contains(t, consumeCmd.Long, "--max-runtime")
}

func TestConsumeCmd_PrintsSummary(t *testing.T) {
	a := testApp()
	consumer := &mockConsumer{status: domain.ConsumerStatus{
		State:          domain.StateStopped,
		Frames:         10,
		Commits:        8,
		SkippedCommits: 2,
		RecordsWritten: 3,
		LastSeq:        4821,
	}}
	a.NewConsumer = func(cfg domain.FirehoseConfig) driving.Consumer {
		consumer.cfg = cfg
		return consumer
	}

	out, err := runCLI(t, a, "consume", "--max-runtime", "90s", "--cursor", "4800")

	require.NoError(t, err)
	assert.Contains(t, out, "Records saved: 3")
	assert.Contains(t, out, "--cursor 4821")
	assert.Equal(t, 90*time.Second, consumer.cfg.MaxRuntime)
	assert.Equal(t, int64(4800), consumer.cfg.Cursor)
	assert.Equal(t, []string{domain.RecordTypeServer}, consumer.cfg.RecordTypes)
}

func TestConsumeCmd_TransportFailureIsError(t *testing.T) {
	a := testApp()
	a.NewConsumer = func(domain.FirehoseConfig) driving.Consumer {
		return &mockConsumer{err: errors.Join(domain.ErrTransport, errors.New("connection reset"))}
	}

	_, err := runCLI(t, a, "consume")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestRunWithProgress(t *testing.T) {
	old := progressInterval
	progressInterval = 5 * time.Millisecond
	t.Cleanup(func() { progressInterval = old })

	consumer := &mockConsumer{block: true, status: domain.ConsumerStatus{State: domain.StateStreaming, Commits: 4}}
	ctx, cancel := contextWithTimeout(30 * time.Millisecond)
	defer cancel()

	cmd := consumeCmd
	buf := captureOutput(cmd)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := runWithProgress(ctx, cmd, consumer, true)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "streaming... 4 commits")
}
