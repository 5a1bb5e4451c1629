package services

import (
	"sort"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// Match is one record selected from a commit's blocks.
type Match struct {
	// CID identifies the block the record came from.
	CID string

	// Record is the classified record. It is never an UnrecognizedRecord.
	Record domain.Record
}

// FilterResult is the output of FilterRecords.
type FilterResult struct {
	// Matches holds target records in CID order.
	Matches []Match

	// Dropped counts blocks that were not target records. Most blocks in a
	// commit are unrelated repository content, so this is usually large.
	Dropped int
}

// FilterRecords selects the decoded blocks that are maps whose $type is in
// targets. Everything else is dropped silently.
func FilterRecords(blocks domain.BlockMap, targets domain.TargetSet) FilterResult {
	cids := make([]string, 0, len(blocks))
	for cid := range blocks {
		cids = append(cids, cid)
	}
	sort.Strings(cids)

	var result FilterResult
	for _, cid := range cids {
		rec := domain.ClassifyRecord(blocks[cid], targets)
		if _, unrecognized := rec.(domain.UnrecognizedRecord); unrecognized {
			result.Dropped++
			continue
		}
		result.Matches = append(result.Matches, Match{CID: cid, Record: rec})
	}
	return result
}
