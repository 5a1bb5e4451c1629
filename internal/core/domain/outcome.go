package domain

import "time"

// WriteRequest asks the record writer to persist one matched record.
type WriteRequest struct {
	// Record is the matched record.
	Record Record

	// Seq is the sequence number of the commit the record came from.
	Seq int64

	// At is the processing time used for the partition and file name.
	At time.Time
}

// WriteStatus is the result class of one record write.
type WriteStatus int

const (
	// WriteOK means the record file was created.
	WriteOK WriteStatus = iota

	// WriteFailed means the file could not be created or written.
	WriteFailed
)

// String returns the status name.
func (s WriteStatus) String() string {
	if s == WriteOK {
		return "ok"
	}
	return "failed"
}

// WriteOutcome is the per-record result of a write. Writers never return
// errors; failures are reported here.
type WriteOutcome struct {
	// Type is the record type that was written.
	Type string

	// Path is the file written, or the intended path on failure.
	Path string

	// Status is the result class.
	Status WriteStatus

	// Err is set when Status is WriteFailed.
	Err error
}

// CommitResult aggregates everything that happened to one commit.
type CommitResult struct {
	// Seq is the commit sequence number.
	Seq int64

	// Repo is the commit's repository identity.
	Repo string

	// Skipped is set when the commit was not processed at all.
	Skipped bool

	// SkipReason explains Skipped.
	SkipReason string

	// Blocks is the number of blocks that decoded.
	Blocks int

	// BlockFailures lists blocks that did not decode.
	BlockFailures []BlockFailure

	// Dropped is the number of decoded blocks the filter rejected.
	Dropped int

	// Writes holds one outcome per matched record.
	Writes []WriteOutcome
}

// Written returns the number of successful writes.
func (r CommitResult) Written() int {
	n := 0
	for _, w := range r.Writes {
		if w.Status == WriteOK {
			n++
		}
	}
	return n
}

// WriteFailures returns the number of failed writes.
func (r CommitResult) WriteFailures() int {
	return len(r.Writes) - r.Written()
}

// FileStatus is the result class of folding one persisted record file.
type FileStatus int

const (
	// FileApplied means the file updated an identity's entry.
	FileApplied FileStatus = iota

	// FileSkipped means the file was ignored.
	FileSkipped
)

// FileOutcome is the per-file result of a reputation scan.
type FileOutcome struct {
	// Path is the record file.
	Path string

	// Identity is the publisher identity read from the file, if any.
	Identity string

	// Status is the result class.
	Status FileStatus

	// Err explains FileSkipped.
	Err error
}

// ScoreFailure records an identity whose score fell back to zero.
type ScoreFailure struct {
	Identity string
	Err      error
}

// ScanResult aggregates a reputation recompute pass.
type ScanResult struct {
	// RecordType is the type that was scanned.
	RecordType string

	// Partitions is the number of date directories visited.
	Partitions int

	// Files holds one outcome per record file.
	Files []FileOutcome

	// Identities is the number of entries in the store after the pass.
	Identities int

	// ScoreFailures lists identities scored 0.0 because of an error.
	ScoreFailures []ScoreFailure

	// DroppedEntries lists stored identities discarded on load.
	DroppedEntries []string
}

// Applied returns the number of files that updated an entry.
func (r ScanResult) Applied() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == FileApplied {
			n++
		}
	}
	return n
}

// Skipped returns the number of files that were ignored.
func (r ScanResult) Skipped() int {
	return len(r.Files) - r.Applied()
}
