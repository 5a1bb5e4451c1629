package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFirehoseURL is the public relay subscription endpoint.
const DefaultFirehoseURL = "wss://bsky.network/xrpc/com.atproto.sync.subscribeRepos"

// Config is the immutable configuration of a skywatch process.
// It is built once at startup and passed by value into constructors;
// the With* helpers return modified copies.
type Config struct {
	Firehose   FirehoseConfig
	Storage    StorageConfig
	Reputation ReputationConfig
	Scheduler  SchedulerConfig

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
}

// FirehoseConfig configures the consumer.
type FirehoseConfig struct {
	// URL is the subscription endpoint.
	URL string

	// Cursor resumes the stream from a sequence number. Zero means live.
	Cursor int64

	// RecordTypes is the target allow-list.
	RecordTypes []string

	// MaxRuntime stops the consumer after this long. Zero means never.
	MaxRuntime time.Duration
}

// StorageConfig configures the record tree.
type StorageConfig struct {
	// BasePath is the directory holding the firehose/ tree.
	BasePath string
}

// ReputationConfig configures the reputation engine.
type ReputationConfig struct {
	// File is the reputation store path.
	File string

	// RecordType is the type whose records feed the scores.
	RecordType string

	// IdentityField is the record field naming the publisher.
	IdentityField string

	// NameField is the record field holding the display name.
	NameField string

	// Scoring holds the heuristic constants.
	Scoring Scoring
}

// DefaultConfig returns the defaults rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		Firehose: FirehoseConfig{
			URL:         DefaultFirehoseURL,
			RecordTypes: []string{RecordTypeServer},
		},
		Storage: StorageConfig{
			BasePath: dataDir,
		},
		Reputation: ReputationConfig{
			File:          filepath.Join(dataDir, "reputation.json"),
			RecordType:    RecordTypeServer,
			IdentityField: "did",
			NameField:     "name",
			Scoring:       DefaultScoring(),
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if len(c.Targets()) == 0 {
		return fmt.Errorf("%w: at least one record type is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Storage.BasePath) == "" {
		return fmt.Errorf("%w: storage base path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Reputation.File) == "" {
		return fmt.Errorf("%w: reputation file is required", ErrInvalidConfig)
	}
	if c.Reputation.RecordType == "" {
		return fmt.Errorf("%w: reputation record type is required", ErrInvalidConfig)
	}
	if c.Reputation.IdentityField == "" {
		return fmt.Errorf("%w: identity field is required", ErrInvalidConfig)
	}
	if c.Firehose.MaxRuntime < 0 {
		return fmt.Errorf("%w: max runtime must not be negative", ErrInvalidConfig)
	}
	if c.Firehose.Cursor < 0 {
		return fmt.Errorf("%w: cursor must not be negative", ErrInvalidConfig)
	}
	return c.Reputation.Scoring.Validate()
}

// Targets returns the target allow-list as a set.
func (c Config) Targets() TargetSet {
	return NewTargetSet(c.Firehose.RecordTypes...)
}

// FirehosePath returns <base>/firehose.
func (c Config) FirehosePath() string {
	return filepath.Join(c.Storage.BasePath, FirehoseDir)
}

// TypePath returns the record tree directory for a type.
func (c Config) TypePath(recordType string) string {
	return filepath.Join(c.FirehosePath(), TypeDirName(recordType))
}

// WithRecordTypes returns a copy targeting the given types.
func (c Config) WithRecordTypes(types ...string) Config {
	c.Firehose.RecordTypes = append([]string(nil), types...)
	return c
}

// WithMaxRuntime returns a copy with a consumer runtime limit.
func (c Config) WithMaxRuntime(d time.Duration) Config {
	c.Firehose.MaxRuntime = d
	return c
}

// WithCursor returns a copy resuming from seq.
func (c Config) WithCursor(seq int64) Config {
	c.Firehose.Cursor = seq
	return c
}

// WithReputationType returns a copy scoring records of recordType.
func (c Config) WithReputationType(recordType string) Config {
	c.Reputation.RecordType = recordType
	return c
}
