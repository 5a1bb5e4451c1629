package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// runCLI executes args against app and returns the combined output.
func runCLI(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	old := app
	app = a
	t.Cleanup(func() {
		app = old
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// runCLIFor runs a long-lived command until d elapses.
func runCLIFor(t *testing.T, a *App, d time.Duration, args ...string) (string, error) {
	t.Helper()
	old := app
	app = a
	t.Cleanup(func() {
		app = old
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	buf := captureOutput(rootCmd)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetFlags restores scalar flags to their defaults between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() == "stringSlice" {
			return
		}
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func testApp() *App {
	return &App{
		Config: domain.DefaultConfig("/tmp/skywatch-test"),
		Log:    logger.Discard(),
	}
}

// mockConsumer implements driving.Consumer.
type mockConsumer struct {
	cfg    domain.FirehoseConfig
	err    error
	status domain.ConsumerStatus
	block  bool
}

func (m *mockConsumer) Run(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
	}
	return m.err
}

func (m *mockConsumer) State() domain.ConsumerState { return m.status.State }

func (m *mockConsumer) Status() domain.ConsumerStatus { return m.status }

// mockReputation implements driving.ReputationService.
type mockReputation struct {
	result     *domain.ScanResult
	entries    []domain.ReputationEntry
	err        error
	recomputed []string
	limit      int
	minScore   float64
}

func (m *mockReputation) Recompute(_ context.Context, recordType string) (*domain.ScanResult, error) {
	m.recomputed = append(m.recomputed, recordType)
	return m.result, m.err
}

func (m *mockReputation) Get(_ context.Context, identity string) (*domain.ReputationEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, e := range m.entries {
		if e.Identity == identity {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReputation) List(_ context.Context, limit int, minScore float64) ([]domain.ReputationEntry, error) {
	m.limit = limit
	m.minScore = minScore
	return m.entries, m.err
}

// mockScheduler implements driving.Scheduler.
type mockScheduler struct {
	mu      sync.Mutex
	started bool
	err     error
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) wasStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// mockRunner implements Runner.
type mockRunner struct {
	ran chan struct{}
}

func (m *mockRunner) Run(ctx context.Context) error {
	close(m.ran)
	<-ctx.Done()
	return nil
}

var _ driving.Consumer = (*mockConsumer)(nil)

var (
	seenFirst = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seenLast  = time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC)
)

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func captureOutput(cmd *cobra.Command) *bytes.Buffer {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	return buf
}
