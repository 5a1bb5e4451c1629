package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// maxNameAttempts bounds the disambiguating suffixes tried for one record.
const maxNameAttempts = 100

// Ensure RecordWriter implements the interface.
var _ driven.RecordWriter = (*RecordWriter)(nil)

// RecordWriter writes one JSON file per matched record. Files are created
// exclusively: an existing file is never overwritten, the next free
// <HHMMSS>_<seq>_<n>.json name is used instead.
type RecordWriter struct {
	root string
	log  *slog.Logger
}

// NewRecordWriter creates a writer rooted at <basePath>/firehose.
func NewRecordWriter(basePath string, log *slog.Logger) *RecordWriter {
	return &RecordWriter{
		root: filepath.Join(basePath, domain.FirehoseDir),
		log:  logger.Component(log, "records"),
	}
}

// Write persists req.Record. It is safe for concurrent use. A started
// write always runs to completion; the context is not consulted.
func (w *RecordWriter) Write(_ context.Context, req domain.WriteRequest) domain.WriteOutcome {
	recordType := req.Record.Type()
	dir := filepath.Join(w.root, domain.TypeDirName(recordType), domain.PartitionName(req.At))
	out := domain.WriteOutcome{
		Type:   recordType,
		Path:   filepath.Join(dir, domain.RecordFileName(req.At, req.Seq, 0)),
		Status: domain.WriteFailed,
	}

	body, err := encodeRecord(req.Record.Fields())
	if err != nil {
		out.Err = fmt.Errorf("encode record: %w", err)
		return out
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		out.Err = fmt.Errorf("create directory: %w", err)
		return out
	}

	for attempt := range maxNameAttempts {
		path := filepath.Join(dir, domain.RecordFileName(req.At, req.Seq, attempt))
		err := writeExclusive(path, body)
		if errors.Is(err, fs.ErrExist) {
			w.log.Debug("record file exists, trying next name", "path", path)
			continue
		}
		out.Path = path
		if err != nil {
			out.Err = err
			return out
		}
		out.Status = domain.WriteOK
		return out
	}

	out.Err = fmt.Errorf("%w: %d names taken for seq %d", domain.ErrFileCollision, maxNameAttempts, req.Seq)
	return out
}

// encodeRecord pretty-prints fields without HTML escaping so the file
// holds the record text as published.
func encodeRecord(fields map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeExclusive creates path and writes body. It fails with fs.ErrExist
// if the file is already there. A partially written file is removed.
func writeExclusive(path string, body []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write record: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close record: %w", err)
	}
	return nil
}
