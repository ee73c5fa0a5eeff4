// Package watch reports file system events on fixture files in the group
// directories.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/generator"
	"github.com/mainbong/storage_fixtures/internal/logger"
)

// Event is a change to a fixture file
type Event struct {
	Op   string
	Path string
}

// Monitor watches group directories for fixture file changes
type Monitor struct {
	cfg     *config.Config
	watcher *fsnotify.Watcher
	dirs    []string
}

// NewMonitor creates a new monitor for the configured groups
func NewMonitor(cfg *config.Config) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Monitor{
		cfg:     cfg,
		watcher: watcher,
	}, nil
}

// Add starts watching every group directory that exists and returns the
// watched directories. Missing directories are skipped with a warning.
func (m *Monitor) Add() ([]string, error) {
	for _, group := range m.cfg.Groups {
		dir := m.cfg.GroupDir(group)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Warn("Skipping %s: not a directory", dir)
			continue
		}
		if err := m.watcher.Add(dir); err != nil {
			return m.dirs, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		m.dirs = append(m.dirs, dir)
	}

	if len(m.dirs) == 0 {
		return nil, fmt.Errorf("no group directories exist under %s", m.cfg.BaseDir)
	}
	return m.dirs, nil
}

// Watch calls onEvent for each change to a fixture-named file until ctx is done
func (m *Monitor) Watch(ctx context.Context, onEvent func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if e, ok := toEvent(event); ok {
				logger.Debug("%s %s", e.Op, e.Path)
				onEvent(e)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// WatchWithTimeout watches for at most timeout
func (m *Monitor) WatchWithTimeout(timeout time.Duration, onEvent func(Event)) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return m.Watch(ctx, onEvent)
}

// Close closes the monitor
func (m *Monitor) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

func toEvent(event fsnotify.Event) (Event, bool) {
	if _, _, ok := generator.ParseFileName(filepath.Base(event.Name)); !ok {
		return Event{}, false
	}

	var op string
	switch {
	case event.Has(fsnotify.Create):
		op = "create"
	case event.Has(fsnotify.Write):
		op = "write"
	case event.Has(fsnotify.Remove):
		op = "remove"
	case event.Has(fsnotify.Rename):
		op = "rename"
	case event.Has(fsnotify.Chmod):
		op = "chmod"
	default:
		return Event{}, false
	}

	return Event{Op: op, Path: event.Name}, true
}
