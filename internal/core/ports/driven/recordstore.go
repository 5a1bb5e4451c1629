package driven

import (
	"context"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// RecordWriter persists matched records. It is called concurrently for
// the records of one commit.
type RecordWriter interface {
	// Write persists one record. Failures are reported in the outcome,
	// never returned.
	Write(ctx context.Context, req domain.WriteRequest) domain.WriteOutcome
}

// StoredRecord is one persisted record file.
type StoredRecord struct {
	// Partition is the date directory name (YYYY-MM-DD).
	Partition string

	// Name is the file name.
	Name string

	// Path is the full path.
	Path string

	// Content is the file body. Nil when ReadErr is set.
	Content []byte

	// ReadErr is set when the file could not be read.
	ReadErr error
}

// RecordCorpus walks the persisted record tree.
type RecordCorpus interface {
	// Walk calls fn for every record file of recordType, partitions in
	// ascending order and files in ascending name order. A missing tree is
	// not an error. Walk stops early if fn or the context returns an error.
	Walk(ctx context.Context, recordType string, fn func(StoredRecord) error) error
}
