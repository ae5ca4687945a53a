package dispatcher

import (
	"context"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
)

// Handler processes notification events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// Stats are the delivery counters of a dispatcher
type Stats struct {
	Submitted int64 `json:"submitted"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Panics    int64 `json:"panics"`
	Queued    int   `json:"queued"`
	Workers   int   `json:"workers"`
}
