package port

import (
	"context"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// EntityExtractor reads the intent and entities of one message.
// Implementations must be safe for concurrent use.
type EntityExtractor interface {
	Extract(ctx context.Context, text string, uc entity.UserContext) (entity.IntentResult, error)
}

// ChatMessage is one outbound staff notification
type ChatMessage struct {
	Title string
	Lines []string
	// Role selects the staff chat the message goes to
	Role entity.StaffRole
}

// MessageSender delivers notifications to a staff chat
type MessageSender interface {
	Name() string
	Send(ctx context.Context, msg ChatMessage) error
}
