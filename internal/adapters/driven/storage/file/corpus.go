package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure Corpus implements the interface.
var _ driven.RecordCorpus = (*Corpus)(nil)

// Corpus reads the record tree written by RecordWriter.
type Corpus struct {
	root string
}

// NewCorpus creates a corpus rooted at <basePath>/firehose.
func NewCorpus(basePath string) *Corpus {
	return &Corpus{root: filepath.Join(basePath, domain.FirehoseDir)}
}

// TypeDir returns the directory holding records of recordType.
func (c *Corpus) TypeDir(recordType string) string {
	return filepath.Join(c.root, domain.TypeDirName(recordType))
}

// Walk visits partitions and files in lexical order, which for the
// YYYY-MM-DD and HHMMSS names is chronological. Unreadable files are
// passed to fn with ReadErr set.
func (c *Corpus) Walk(ctx context.Context, recordType string, fn func(driven.StoredRecord) error) error {
	typeDir := c.TypeDir(recordType)
	partitions, err := os.ReadDir(typeDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", typeDir, err)
	}

	for _, p := range partitions {
		if !p.IsDir() {
			continue
		}
		partDir := filepath.Join(typeDir, p.Name())
		files, err := os.ReadDir(partDir)
		if err != nil {
			return fmt.Errorf("read %s: %w", partDir, err)
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), domain.RecordFileExt) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(partDir, f.Name())
			rec := driven.StoredRecord{
				Partition: p.Name(),
				Name:      f.Name(),
				Path:      path,
			}
			rec.Content, rec.ReadErr = os.ReadFile(path)
			if rec.ReadErr != nil {
				rec.Content = nil
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
