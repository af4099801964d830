// Package watch monitors a directory for new log files and feeds them
// into the ingestion pipeline.
package watch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"lina/internal/logging"
	"lina/internal/logstore"
)

// watched file extensions; anything else in the directory is ignored.
var watchedExtensions = []string{".log", ".txt", ".csv", ".json"}

// Watcher ingests log files as they appear in a directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	pipeline *logstore.Pipeline
}

// New creates a directory watcher over the given ingestion pipeline.
func New(pipeline *logstore.Pipeline) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w, pipeline: pipeline}, nil
}

// Run watches dir until ctx is cancelled, ingesting each created or
// modified log file. Ingestion errors are logged and watching
// continues; a bad file must not stop the watcher.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	logging.Ingest("Watching %s for log files", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isWatchedFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			logging.Ingest("Detected %s: %s", event.Op, event.Name)
			if n, err := w.pipeline.IngestFile(ctx, event.Name); err != nil {
				logging.IngestWarn("Failed to ingest %s: %v", event.Name, err)
			} else {
				logging.Ingest("Ingested %d records from %s", n, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.IngestWarn("Watcher error: %v", err)
		}
	}
}

// Stop closes the underlying watcher, unblocking Run.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isWatchedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range watchedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
