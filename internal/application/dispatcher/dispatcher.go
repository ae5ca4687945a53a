package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// Dispatcher fans notification events out to the handlers subscribed to
// their type
type Dispatcher interface {
	// Subscribe adds handler under a generated name unique to eventType
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed adds handler under name, replacing a handler already
	// registered with that name
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs the handlers in subscription order on the caller's
	// goroutine and stops at the first failure
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync queues the event for the worker pool and never blocks.
	// When the queue is full the delivery is dropped and counted.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers describes the handlers of eventType without their funcs
	ListHandlers(eventType event.Type) []HandlerInfo

	Stats() Stats

	// Close stops accepting events, drains the queue and waits for the workers
	Close() error
}

// Logger is the key/value logger the dispatcher reports through
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type job struct {
	ctx  context.Context
	evt  *event.Event
	info HandlerInfo
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	seq      map[event.Type]int
	closed   bool
	logger   Logger

	workers   int
	queueSize int
	queue     chan job
	wg        sync.WaitGroup

	submitted atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithWorkers sets the number of async delivery workers
func WithWorkers(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize bounds the number of pending async deliveries
func WithQueueSize(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// NewDispatcher creates a dispatcher and starts its worker pool
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers:  make(map[event.Type][]HandlerInfo),
		seq:       make(map[event.Type]int),
		logger:    nopLogger{},
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.queue = make(chan job, d.queueSize)
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				_ = d.deliver(j)
			}
		}()
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	name := fmt.Sprintf("handler-%d", d.seq[eventType])
	d.mu.Unlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq[eventType]++
	info := HandlerInfo{Name: name, EventType: eventType, Handler: handler}
	for i, h := range d.handlers[eventType] {
		if h.Name == name {
			d.handlers[eventType][i] = info
			d.logger.Info("Handler replaced", "event_type", eventType, "handler_name", name)
			return
		}
	}
	d.handlers[eventType] = append(d.handlers[eventType], info)
	d.logger.Info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.handlers[eventType][:0:0]
	for _, h := range d.handlers[eventType] {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	d.handlers[eventType] = kept
	d.logger.Info("Handler unregistered", "event_type", eventType, "handler_name", name)
}

// subscribers returns a snapshot of the handlers for t, or false once the
// dispatcher is closed
func (d *eventDispatcher) subscribers(t event.Type) ([]HandlerInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, false
	}
	return append([]HandlerInfo(nil), d.handlers[t]...), true
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	handlers, open := d.subscribers(evt.Type)
	if !open {
		return fmt.Errorf("dispatcher is closed")
	}

	for _, info := range handlers {
		d.submitted.Add(1)
		if err := d.deliver(job{ctx: ctx, evt: evt, info: info}); err != nil {
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}
	return nil
}

// DispatchAsync queues one delivery per subscribed handler. Deliveries
// outlive the request that produced them, so ctx loses its cancellation.
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	// the read lock keeps Close from closing the queue mid-send
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Error("Dispatcher closed, event not queued",
			"event_type", evt.Type,
			"event_id", evt.ID)
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, info := range d.handlers[evt.Type] {
		d.submitted.Add(1)
		select {
		case d.queue <- job{ctx: ctx, evt: evt, info: info}:
		default:
			d.dropped.Add(1)
			d.logger.Error("Notification queue full, dropping delivery",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name)
		}
	}
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]HandlerInfo, 0, len(d.handlers[eventType]))
	for _, h := range d.handlers[eventType] {
		h.Handler = nil
		out = append(out, h)
	}
	return out
}

func (d *eventDispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
		Panics:    d.panics.Load(),
		Queued:    len(d.queue),
		Workers:   d.workers,
	}
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	st := d.Stats()
	d.logger.Info("Dispatcher closed",
		"delivered", st.Delivered,
		"failed", st.Failed,
		"dropped", st.Dropped)
	return nil
}

// deliver runs one handler, recovering panics, and updates the counters
func (d *eventDispatcher) deliver(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			d.failed.Add(1)
			d.logger.Error("Notification handler failed",
				"event_type", j.evt.Type,
				"event_id", j.evt.ID,
				"correlation_id", j.evt.CorrelationID,
				"handler_name", j.info.Name,
				"error", err)
			return
		}
		d.delivered.Add(1)
	}()
	return j.info.Handler(j.ctx, j.evt)
}
