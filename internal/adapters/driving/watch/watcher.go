// Package watch requests reputation recomputes when new record files land
// in the record tree.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
	"github.com/custodia-labs/skywatch/internal/logger"
)

// Watcher observes one record-type directory and its date partitions.
type Watcher struct {
	dir     string
	trigger driving.RecomputeTrigger
	log     *slog.Logger
}

// New creates a watcher for dir, the directory holding the date partitions
// of one record type.
func New(dir string, trigger driving.RecomputeTrigger, log *slog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		trigger: trigger,
		log:     logger.Component(log, "watch"),
	}
}

// Run watches until ctx is cancelled. The directory is created if missing.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addPartition(fw, filepath.Join(w.dir, e.Name()))
		}
	}

	w.log.Info("watching record tree", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleFsEvent(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// handleFsEvent reacts to one event. It reports whether a recompute was
// requested.
func (w *Watcher) handleFsEvent(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.dir {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if fw != nil {
				w.addPartition(fw, event.Name)
			}
			return false
		}
	}

	if filepath.Ext(name) != ".json" {
		return false
	}

	accepted := w.trigger.Request("new record " + name)
	w.log.Debug("record file changed", "path", event.Name, "accepted", accepted)
	return true
}

func (w *Watcher) addPartition(fw *fsnotify.Watcher, dir string) {
	if err := fw.Add(dir); err != nil {
		w.log.Warn("watching partition", "dir", dir, "error", err)
	}
}
