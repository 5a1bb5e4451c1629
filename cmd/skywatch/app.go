package main

import (
	"errors"
	"os"

	"github.com/custodia-labs/skywatch/internal/adapters/driven/atproto"
	"github.com/custodia-labs/skywatch/internal/adapters/driven/car"
	cfgfile "github.com/custodia-labs/skywatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/skywatch/internal/adapters/driven/metrics"
	recordfile "github.com/custodia-labs/skywatch/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/skywatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/skywatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/skywatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/skywatch/internal/adapters/driving/watch"
	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/core/services"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// newApp wires adapters into services for the CLI.
func newApp(opts cli.Options) (*cli.App, error) {
	log := logger.New(os.Stderr, logger.Options{Verbose: opts.Verbose, JSON: opts.JSONLogs})

	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := cfgfile.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	store, err := cfgfile.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	cfg, err := cfgfile.LoadConfig(store, configDir)
	if err != nil {
		return nil, err
	}
	log.Debug("configuration loaded", "path", store.Path(), "data", cfg.Storage.BasePath)

	var sink driven.Metrics
	a := &cli.App{Config: cfg, Log: log}
	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus()
		sink = prom
		a.Metrics = prom.Handler()
	}

	reputation := services.NewReputationEngine(
		cfg.Reputation,
		recordfile.NewCorpus(cfg.Storage.BasePath),
		recordfile.NewReputationStore(cfg.Reputation.File),
		log,
		services.WithReputationMetrics(sink),
	)
	a.Reputation = reputation
	a.DryRun = services.NewReputationEngine(
		cfg.Reputation,
		recordfile.NewCorpus(cfg.Storage.BasePath),
		memory.NewReputationStore(),
		log,
	)

	a.NewConsumer = func(fc domain.FirehoseConfig) driving.Consumer {
		return services.NewConsumer(
			fc,
			atproto.NewWebsocketTransport(fc.URL, fc.Cursor, log),
			atproto.NewEnvelopeDecoder(),
			car.NewDecoder(),
			recordfile.NewRecordWriter(cfg.Storage.BasePath, log),
			log,
			services.WithConsumerMetrics(sink),
		)
	}

	var (
		closers []func() error
		db      *sqlite.Store
	)
	openState := func() (*sqlite.Store, error) {
		if db != nil {
			return db, nil
		}
		store, err := sqlite.NewStore(cfg.Storage.BasePath)
		if err != nil {
			return nil, err
		}
		db = store
		closers = append(closers, store.Close)
		return db, nil
	}

	a.NewHistory = func() (driving.RecomputeHistory, error) {
		store, err := openState()
		if err != nil {
			return nil, err
		}
		return services.NewHistory(store.SchedulerStore()), nil
	}

	a.NewWorker = func(ephemeral bool) (*cli.Worker, error) {
		var state driven.SchedulerStore = memory.NewSchedulerStore()
		if !ephemeral {
			store, err := openState()
			if err != nil {
				return nil, err
			}
			state = store.SchedulerStore()
		}

		scheduler := services.NewScheduler(
			cfg.Scheduler,
			state,
			reputation,
			cfg.Reputation.RecordType,
			log,
		)
		return &cli.Worker{
			Scheduler: scheduler,
			Trigger:   scheduler,
			History:   services.NewHistory(state),
			Watcher:   watch.New(cfg.TypePath(cfg.Reputation.RecordType), scheduler, log),
		}, nil
	}

	a.Close = func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	return a, nil
}
