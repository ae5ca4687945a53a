package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
)

// ExpiryWorker sweeps idle conversation contexts out of the store
type ExpiryWorker struct {
	store    port.ConversationStore
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	swept   int
}

// NewExpiryWorker creates a worker that calls store.Expire every interval
func NewExpiryWorker(store port.ConversationStore, interval time.Duration, logger *zap.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ExpiryWorker{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Name returns the worker name for identification
func (w *ExpiryWorker) Name() string {
	return "ConversationExpiry"
}

// Start begins the sweep loop
func (w *ExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("expiry worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true

	go w.loop(loopCtx, w.done)
	return nil
}

// Stop ends the loop and waits for an in-flight sweep
func (w *ExpiryWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("ExpiryWorker stopped", zap.Int("swept_total", w.Swept()))
	return nil
}

// Swept returns how many contexts the worker has removed so far
func (w *ExpiryWorker) Swept() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.swept
}

func (w *ExpiryWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass
func (w *ExpiryWorker) Sweep(ctx context.Context) {
	n, err := w.store.Expire(ctx, w.now())
	if err != nil {
		w.logger.Error("Failed to expire conversations", zap.Error(err))
		return
	}
	if n == 0 {
		return
	}

	w.mu.Lock()
	w.swept += n
	w.mu.Unlock()
	w.logger.Info("Expired idle conversations", zap.Int("count", n))
}
