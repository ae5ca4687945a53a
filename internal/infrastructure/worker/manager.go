package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background loop owned by the Manager
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Manager runs the registered workers under one cancellable context
type Manager struct {
	logger *zap.Logger

	mu         sync.RWMutex
	registered []Worker
	started    []Worker
	failed     map[string]error
	cancel     context.CancelFunc
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger, failed: make(map[string]error)}
}

// Register adds w; workers start in registration order
func (m *Manager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, w)
	m.logger.Debug("Worker registered", zap.String("worker_name", w.Name()))
}

// StartAll starts every registered worker. A worker that fails to start is
// recorded in Status and skipped; the others keep running.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("workers already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.failed = make(map[string]error)

	for _, w := range m.registered {
		if err := w.Start(runCtx); err != nil {
			m.failed[w.Name()] = err
			m.logger.Error("Failed to start worker", zap.String("worker_name", w.Name()), zap.Error(err))
			continue
		}
		m.started = append(m.started, w)
	}
	m.logger.Info("Workers started",
		zap.Int("running", len(m.started)),
		zap.Int("failed", len(m.failed)))
	return nil
}

// StopAll cancels the shared context and stops the started workers in
// reverse order. Stopping an idle manager is a no-op.
func (m *Manager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return nil
	}
	m.cancel()
	m.cancel = nil

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		w := m.started[i]
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker", zap.String("worker_name", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
		}
	}
	m.started = nil
	return errors.Join(errs...)
}

// Count returns the number of registered workers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.registered)
}

// IsRunning reports whether StartAll has run without a matching StopAll
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancel != nil
}

// Status describes each registered worker as "running", "stopped" or the
// error it failed to start with
func (m *Manager) Status() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.registered))
	for _, w := range m.registered {
		out[w.Name()] = "stopped"
	}
	for _, w := range m.started {
		out[w.Name()] = "running"
	}
	for name, err := range m.failed {
		out[name] = "failed: " + err.Error()
	}
	return out
}

// Summary renders Status as one sorted line for health output
func (m *Manager) Summary() string {
	status := m.Status()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + status[name]
	}
	return strings.Join(parts, ", ")
}
