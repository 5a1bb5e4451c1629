package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record file layout:
//
//	<base>/firehose/<type_with_underscores>/<YYYY-MM-DD>/<HHMMSS>_<seq>.json
const (
	// FirehoseDir is the directory under the base path holding record trees.
	FirehoseDir = "firehose"

	// RecordFileExt is the extension of persisted record files.
	RecordFileExt = ".json"

	partitionLayout = "2006-01-02"
	timeLayout      = "150405"
)

var typeDirReplacer = strings.NewReplacer(".", "_", "/", "_", "\\", "_")

// TypeDirName returns the directory name for a record type.
func TypeDirName(recordType string) string {
	return typeDirReplacer.Replace(recordType)
}

// PartitionName returns the UTC date directory name for t.
func PartitionName(t time.Time) string {
	return t.UTC().Format(partitionLayout)
}

// RecordFileName returns the file name for a record processed at t from
// commit seq. A non-zero attempt appends a disambiguating suffix; the
// leading time-of-day is kept so the timestamp stays parseable.
func RecordFileName(t time.Time, seq int64, attempt int) string {
	stem := t.UTC().Format(timeLayout) + "_" + strconv.FormatInt(seq, 10)
	if attempt > 0 {
		stem += "_" + strconv.Itoa(attempt)
	}
	return stem + RecordFileExt
}

// ParseRecordTimestamp rebuilds the UTC processing time of a record from
// its partition directory name and file name.
func ParseRecordTimestamp(partition, fileName string) (time.Time, error) {
	if len(fileName) < len(timeLayout) {
		return time.Time{}, fmt.Errorf("%w: file name %q too short", ErrBadTimestamp, fileName)
	}
	t, err := time.ParseInLocation(partitionLayout+" "+timeLayout,
		partition+" "+fileName[:len(timeLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s/%s: %v", ErrBadTimestamp, partition, fileName, err)
	}
	return t, nil
}
