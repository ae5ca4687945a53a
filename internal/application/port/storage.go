package port

import (
	"context"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ConversationStore keeps one ConversationContext per conversation id.
// Get reports absent for contexts idle longer than the store TTL and
// removes them; Expire sweeps them eagerly.
type ConversationStore interface {
	Get(ctx context.Context, conversationID string) (*entity.ConversationContext, bool, error)
	Put(ctx context.Context, conv *entity.ConversationContext) error
	Delete(ctx context.Context, conversationID string) error
	Expire(ctx context.Context, now time.Time) (int, error)
}

// Locker serialises work on one key
type Locker interface {
	Lock(key string) (unlock func())
}
