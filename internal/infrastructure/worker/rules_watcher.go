package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
)

// RulesWatcher reloads the classifier keyword table when its file changes.
// A file that fails to parse leaves the active rules in place.
type RulesWatcher struct {
	path   string
	store  *classifier.RuleStore
	logger *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	reloads int
}

// NewRulesWatcher creates a watcher for the rules file at path
func NewRulesWatcher(path string, store *classifier.RuleStore, logger *zap.Logger) *RulesWatcher {
	return &RulesWatcher{
		path:   filepath.Clean(path),
		store:  store,
		logger: logger,
	}
}

// Name returns the worker name for identification
func (w *RulesWatcher) Name() string {
	return "RulesWatcher"
}

// Start watches the directory holding the rules file. Editors often replace
// files by rename, so the directory is watched rather than the file.
func (w *RulesWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return fmt.Errorf("rules watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.loop(ctx, fw, w.done)

	w.logger.Info("Watching classifier rules", zap.String("path", w.path))
	return nil
}

// Stop closes the watcher
func (w *RulesWatcher) Stop() error {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	err := fw.Close()
	<-done
	return err
}

// Reloads returns the number of successful reloads
func (w *RulesWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *RulesWatcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			w.Reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Rules watcher error", zap.Error(err))
		}
	}
}

// Reload reads the rules file and swaps it into the store
func (w *RulesWatcher) Reload() bool {
	rs, err := classifier.LoadRuleSet(w.path)
	if err != nil {
		w.logger.Error("Keeping previous classifier rules",
			zap.String("path", w.path),
			zap.Error(err))
		return false
	}

	w.store.Replace(classifier.Compile(rs))

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("Classifier rules reloaded",
		zap.String("path", w.path),
		zap.Int("new_request_signals", len(rs.NewRequestSignals)))
	return true
}
