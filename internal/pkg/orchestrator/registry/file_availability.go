package registry

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"test-orchestrator/internal/shared/logger"
)

// availabilityDocument is the on-disk layout of the availability file
type availabilityDocument struct {
	Components map[string]bool `yaml:"components"`
}

// FileAvailability answers from a YAML table that is reloaded whenever the file changes
type FileAvailability struct {
	path    string
	logger  *logger.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu    sync.RWMutex
	table map[string]bool
}

// NewFileAvailability loads the file once and starts watching it.
// The containing directory is watched so editors that replace the file are handled.
func NewFileAvailability(path string, log *logger.Logger) (*FileAvailability, error) {
	fa := &FileAvailability{
		path:   path,
		logger: log.Named("file-availability"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := fa.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	fa.watcher = watcher

	go fa.watch()

	return fa, nil
}

// Availability implements AvailabilityChecker
func (f *FileAvailability) Availability(_ context.Context, component string) (bool, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	available, ok := f.table[component]
	if !ok {
		return false, fmt.Sprintf("Component %s is not listed in %s", component, f.path)
	}
	return available, "Component status read from " + f.path
}

// Close stops the watcher
func (f *FileAvailability) Close() error {
	close(f.stopCh)
	<-f.doneCh
	return nil
}

func (f *FileAvailability) reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read availability file: %w", err)
	}
	// Truncate-then-write shows up as an empty file between events
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("availability file %s is empty", f.path)
	}

	var doc availabilityDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse availability file: %w", err)
	}
	if doc.Components == nil {
		doc.Components = map[string]bool{}
	}

	f.mu.Lock()
	f.table = doc.Components
	f.mu.Unlock()
	return nil
}

// watch monitors the availability file and reloads it on change.
// A file that fails to parse leaves the previous table in place.
func (f *FileAvailability) watch() {
	defer close(f.doneCh)
	defer f.watcher.Close()

	target := filepath.Clean(f.path)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := f.reload(); err != nil {
				f.logger.Error("Failed to reload availability file", zap.String("file", f.path), zap.Error(err))
				continue
			}
			f.logger.Info("Availability file reloaded", zap.String("file", f.path))

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error("File watcher error", zap.Error(err))

		case <-f.stopCh:
			return
		}
	}
}
