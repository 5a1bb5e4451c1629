// Package cli provides the cobra command tree for skywatch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
)

// version is set at build time via -ldflags.
var version = "dev"

// Options are the global flags every command shares.
type Options struct {
	// ConfigDir holds config.toml and, by default, the data directory.
	ConfigDir string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs selects JSON log output.
	JSONLogs bool
}

// Runner is a long-running component such as the record-tree watcher.
type Runner interface {
	Run(ctx context.Context) error
}

// Worker is the set of background components the worker command runs.
type Worker struct {
	// Scheduler runs reputation recomputes.
	Scheduler driving.Scheduler

	// Trigger requests out-of-schedule recomputes from Scheduler. May be nil.
	Trigger driving.RecomputeTrigger

	// History reads the runs Scheduler records. May be nil.
	History driving.RecomputeHistory

	// Watcher requests recomputes for new record files. Nil when disabled.
	Watcher Runner
}

// App holds the wired services the commands run against.
type App struct {
	Config domain.Config
	Log    *slog.Logger

	// Reputation answers recompute and lookup requests.
	Reputation driving.ReputationService

	// DryRun recomputes from the same corpus without touching the
	// reputation file. Nil when unavailable.
	DryRun driving.ReputationService

	// NewConsumer builds a firehose consumer for cfg.
	NewConsumer func(cfg domain.FirehoseConfig) driving.Consumer

	// NewWorker builds the worker components. Ephemeral workers keep
	// scheduler state in memory.
	NewWorker func(ephemeral bool) (*Worker, error)

	// NewHistory opens the recorded recompute runs.
	NewHistory func() (driving.RecomputeHistory, error)

	// Metrics serves /metrics. Nil when metrics are disabled.
	Metrics http.Handler

	// Close releases resources. May be nil.
	Close func() error
}

// AppFactory builds the App from the global flags.
type AppFactory func(opts Options) (*App, error)

var (
	opts    Options
	factory AppFactory
	app     *App
)

var rootCmd = &cobra.Command{
	Use:   "skywatch",
	Short: "Collect MCP server records from the atproto firehose and score their publishers",
	Long: `skywatch subscribes to the atproto firehose, saves records of the configured
types as JSON files, and maintains a longevity reputation score for every
publisher identity seen.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "", "configuration directory (default ~/.skywatch)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.JSONLogs, "json-logs", false, "emit logs as JSON")
}

// Execute runs the command tree. The factory is called lazily by commands
// that need services.
func Execute(ctx context.Context, f AppFactory) error {
	factory = f
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

// loadApp returns the App, building it on first use.
func loadApp() (*App, error) {
	if app != nil {
		return app, nil
	}
	if factory == nil {
		return nil, errors.New("application not configured")
	}
	a, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("initialising: %w", err)
	}
	app = a
	return app, nil
}

func closeApp() {
	a := app
	app = nil
	if a == nil || a.Close == nil {
		return
	}
	if err := a.Close(); err != nil && a.Log != nil {
		a.Log.Warn("closing resources", "error", err)
	}
}
