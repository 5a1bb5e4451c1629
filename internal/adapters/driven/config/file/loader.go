package file

import (
	"path/filepath"
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyFirehoseURL        = "firehose.url"
	KeyFirehoseTypes      = "firehose.record_types"
	KeyFirehoseMaxRuntime = "firehose.max_runtime_seconds"
	KeyFirehoseCursor     = "firehose.cursor"

	KeyStorageBasePath = "storage.base_path"

	KeyReputationFile          = "reputation.file"
	KeyReputationRecordType    = "reputation.record_type"
	KeyReputationIdentityField = "reputation.identity_field"
	KeyReputationNameField     = "reputation.name_field"
	KeyReputationBaseScore     = "reputation.base_score"
	KeyReputationMaxAgeScore   = "reputation.max_age_score"
	KeyReputationMaxAgeDays    = "reputation.max_age_days"

	KeySchedulerEnabled      = "scheduler.enabled"
	KeySchedulerInitialDelay = "scheduler.initial_delay_seconds"
	KeySchedulerInterval     = "scheduler.interval_minutes"
	KeySchedulerWatch        = "scheduler.watch"

	KeyMetricsAddr = "metrics.addr"
)

// DataDir is the default storage directory name inside the config directory.
const DataDir = "data"

// LoadConfig builds the process configuration from store. Keys that are not
// set keep their defaults; the storage base path defaults to
// <configDir>/data. The result is validated.
func LoadConfig(store driven.ConfigStore, configDir string) (domain.Config, error) {
	base := store.GetString(KeyStorageBasePath)
	if base == "" {
		base = filepath.Join(configDir, DataDir)
	}
	cfg := domain.DefaultConfig(base)

	if v := store.GetString(KeyFirehoseURL); v != "" {
		cfg.Firehose.URL = v
	}
	if types := store.GetStringSlice(KeyFirehoseTypes); len(types) > 0 {
		cfg.Firehose.RecordTypes = types
		cfg.Reputation.RecordType = types[0]
	}
	if has(store, KeyFirehoseMaxRuntime) {
		cfg.Firehose.MaxRuntime = time.Duration(store.GetInt(KeyFirehoseMaxRuntime)) * time.Second
	}
	if has(store, KeyFirehoseCursor) {
		cfg.Firehose.Cursor = int64(store.GetInt(KeyFirehoseCursor))
	}

	if v := store.GetString(KeyReputationFile); v != "" {
		cfg.Reputation.File = v
	}
	if v := store.GetString(KeyReputationRecordType); v != "" {
		cfg.Reputation.RecordType = v
	}
	if v := store.GetString(KeyReputationIdentityField); v != "" {
		cfg.Reputation.IdentityField = v
	}
	if v := store.GetString(KeyReputationNameField); v != "" {
		cfg.Reputation.NameField = v
	}
	if has(store, KeyReputationBaseScore) {
		cfg.Reputation.Scoring.BaseScore = store.GetFloat(KeyReputationBaseScore)
	}
	if has(store, KeyReputationMaxAgeScore) {
		cfg.Reputation.Scoring.MaxAgeScore = store.GetFloat(KeyReputationMaxAgeScore)
	}
	if has(store, KeyReputationMaxAgeDays) {
		cfg.Reputation.Scoring.MaxAgeDays = store.GetInt(KeyReputationMaxAgeDays)
	}

	if has(store, KeySchedulerEnabled) {
		cfg.Scheduler.Enabled = store.GetBool(KeySchedulerEnabled)
	}
	if has(store, KeySchedulerInitialDelay) {
		cfg.Scheduler.InitialDelay = time.Duration(store.GetInt(KeySchedulerInitialDelay)) * time.Second
	}
	if has(store, KeySchedulerInterval) {
		minutes := store.GetInt(KeySchedulerInterval)
		cfg.Scheduler.TaskConfigs = map[string]domain.TaskConfig{
			domain.TaskIDReputationRecompute: {
				Enabled:  minutes > 0,
				Interval: time.Duration(minutes) * time.Minute,
			},
		}
	}
	cfg.Scheduler.Watch = store.GetBool(KeySchedulerWatch)

	cfg.MetricsAddr = store.GetString(KeyMetricsAddr)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func has(store driven.ConfigStore, key string) bool {
	_, ok := store.Get(key)
	return ok
}
