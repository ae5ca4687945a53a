package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

func noop(ctx context.Context, evt *event.Event) error { return nil }

func newEvent() *event.Event {
	return event.NewEvent(event.TypeGuestApproved, 1, nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("subscribes multiple handlers to same event type", func(t *testing.T) {
		d := NewDispatcher()
		defer d.Close()
		called1, called2 := false, false

		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			called1 = true
			return nil
		})
		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			called2 = true
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvent()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if !called1 || !called2 {
			t.Error("expected both handlers to be called")
		}

		handlers := d.ListHandlers(event.TypeGuestApproved)
		if len(handlers) != 2 || handlers[0].Name != "handler-0" || handlers[1].Name != "handler-1" {
			t.Errorf("unexpected handler names: %+v", handlers)
		}
	})

	t.Run("logs named registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		defer d.Close()

		d.SubscribeNamed(event.TypeGuestApproved, "security-desk", noop)

		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()
	called1, called2 := false, false

	d.SubscribeNamed(event.TypeGuestApproved, "handler-1", func(ctx context.Context, evt *event.Event) error {
		called1 = true
		return nil
	})
	d.SubscribeNamed(event.TypeGuestApproved, "handler-2", func(ctx context.Context, evt *event.Event) error {
		called2 = true
		return nil
	})

	d.Unsubscribe(event.TypeGuestApproved, "handler-1")

	if err := d.Dispatch(context.Background(), newEvent()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called1 {
		t.Error("expected handler-1 not to be called")
	}
	if !called2 {
		t.Error("expected handler-2 to be called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		defer d.Close()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newEvent())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
		if s := d.Stats(); s.Failed != 1 || s.Delivered != 0 {
			t.Errorf("unexpected stats %+v", s)
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		defer d.Close()

		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), newEvent()); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if !logger.HasError("Notification handler failed") {
			t.Error("expected panic to be logged as error")
		}
		if d.Stats().Panics != 1 {
			t.Errorf("expected 1 panic, got %d", d.Stats().Panics)
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), newEvent()); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("delivers every handler before Close returns", func(t *testing.T) {
		d := NewDispatcher(WithWorkers(2))
		var called atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeLeaveApproved, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeLeaveApproved, 1, nil))

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if called.Load() != 3 {
			t.Errorf("expected 3 handlers to be called, got %d", called.Load())
		}
		if s := d.Stats(); s.Submitted != 3 || s.Delivered != 3 {
			t.Errorf("unexpected stats %+v", s)
		}
	})

	t.Run("errors and panics are counted, not propagated", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeStaffEscalation, func(ctx context.Context, evt *event.Event) error {
			return errors.New("lark unavailable")
		})
		d.Subscribe(event.TypeStaffEscalation, func(ctx context.Context, evt *event.Event) error {
			panic("async panic")
		})
		d.Subscribe(event.TypeStaffEscalation, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeStaffEscalation, 1, nil))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if called.Load() != 1 {
			t.Errorf("expected healthy handler to run, got %d calls", called.Load())
		}
		s := d.Stats()
		if s.Failed != 2 || s.Panics != 1 || s.Delivered != 1 {
			t.Errorf("unexpected stats %+v", s)
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected errors to be logged")
		}
	})

	t.Run("survives cancellation of the producing context", func(t *testing.T) {
		d := NewDispatcher()
		var sawErr atomic.Bool

		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			if ctx.Err() != nil {
				sawErr.Store(true)
			}
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, newEvent())
		cancel()

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if sawErr.Load() {
			t.Error("expected delivery context to outlive the request")
		}
	})

	t.Run("drops deliveries when the queue is full", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger), WithWorkers(1), WithQueueSize(1))

		started := make(chan struct{}, 3)
		release := make(chan struct{})
		d.Subscribe(event.TypeMaintenanceScheduled, func(ctx context.Context, evt *event.Event) error {
			started <- struct{}{}
			<-release
			return nil
		})

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeMaintenanceScheduled, 1, nil))
		<-started

		// worker busy: one delivery fits the queue, the next is dropped
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeMaintenanceScheduled, 2, nil))
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeMaintenanceScheduled, 3, nil))

		close(release)
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		s := d.Stats()
		if s.Submitted != 3 || s.Delivered != 2 || s.Dropped != 1 {
			t.Errorf("unexpected stats %+v", s)
		}
		if !logger.HasError("Notification queue full, dropping delivery") {
			t.Error("expected drop to be logged")
		}
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeGuestApproved, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		d.DispatchAsync(context.Background(), newEvent())
		time.Sleep(20 * time.Millisecond)

		if called.Load() > 0 {
			t.Error("expected handler not to be called after close")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected error log for dispatching to closed dispatcher")
		}
	})
}

func TestSubscribe_NamesStayUnique(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	d.Subscribe(event.TypeLeaveApproved, noop)
	d.Subscribe(event.TypeLeaveApproved, noop)
	d.Unsubscribe(event.TypeLeaveApproved, "handler-0")
	d.Subscribe(event.TypeLeaveApproved, noop)

	handlers := d.ListHandlers(event.TypeLeaveApproved)
	if len(handlers) != 2 || handlers[0].Name != "handler-1" || handlers[1].Name != "handler-2" {
		t.Errorf("unexpected handler names: %+v", handlers)
	}
}

func TestSubscribeNamed_Replaces(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()
	var first, second bool

	d.SubscribeNamed(event.TypeGuestApproved, "security-desk", func(ctx context.Context, evt *event.Event) error {
		first = true
		return nil
	})
	d.SubscribeNamed(event.TypeGuestApproved, "security-desk", func(ctx context.Context, evt *event.Event) error {
		second = true
		return nil
	})

	if err := d.Dispatch(context.Background(), newEvent()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if first || !second {
		t.Errorf("expected only the replacement handler to run, got first=%v second=%v", first, second)
	}
	if n := len(d.ListHandlers(event.TypeGuestApproved)); n != 1 {
		t.Errorf("expected 1 handler, got %d", n)
	}
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	if got := d.ListHandlers(event.TypeGuestApproved); len(got) != 0 {
		t.Errorf("expected 0 handlers, got %d", len(got))
	}

	d.SubscribeNamed(event.TypeGuestApproved, "security-desk", noop)
	d.SubscribeNamed(event.TypeStaffEscalation, "warden-chat", noop)

	handlers := d.ListHandlers(event.TypeGuestApproved)
	if len(handlers) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(handlers))
	}
	if handlers[0].Name != "security-desk" || handlers[0].EventType != event.TypeGuestApproved {
		t.Errorf("unexpected handler info %+v", handlers[0])
	}
	if handlers[0].Handler != nil {
		t.Error("expected handler function not to be exposed")
	}
}

func TestClose(t *testing.T) {
	d := NewDispatcher()

	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Fatal("expected error on second close")
	}
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher(WithQueueSize(1000))
	var called atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeCleaningScheduled, fmt.Sprintf("handler-%d", id), func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.DispatchAsync(context.Background(), event.NewEvent(event.TypeCleaningScheduled, 1, nil))
		}()
	}
	wg.Wait()

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if called.Load() != 100 {
		t.Errorf("expected 100 handler calls, got %d", called.Load())
	}
}
