// Package conversation keeps per-user dialogue contexts between messages.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// DefaultTTL is how long an idle conversation is kept
const DefaultTTL = 24 * time.Hour

// MemoryStore is an in-process ConversationStore. Contexts are copied on
// the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	contexts map[string]*entity.ConversationContext
	ttl      time.Duration
	clock    func() time.Time
}

// NewMemoryStore creates a store that expires contexts idle for longer than ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		contexts: make(map[string]*entity.ConversationContext),
		ttl:      ttl,
		clock:    time.Now,
	}
}

// TTL returns the idle timeout
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// Get returns a copy of the context, or false when it is absent or expired.
// An expired context is removed.
func (s *MemoryStore) Get(ctx context.Context, conversationID string) (*entity.ConversationContext, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.contexts[conversationID]
	if !ok {
		return nil, false, nil
	}
	if conv.Expired(s.clock(), s.ttl) {
		delete(s.contexts, conversationID)
		return nil, false, nil
	}
	return conv.Clone(), true, nil
}

// Put stores a copy of conv under its conversation id
func (s *MemoryStore) Put(ctx context.Context, conv *entity.ConversationContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conv == nil || conv.ConversationID == "" {
		return fmt.Errorf("conversation context must have an id")
	}

	s.mu.Lock()
	s.contexts[conv.ConversationID] = conv.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes a context; deleting an unknown id is not an error
func (s *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.contexts, conversationID)
	s.mu.Unlock()
	return nil
}

// Expire removes every context idle for longer than the TTL at now
func (s *MemoryStore) Expire(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, conv := range s.contexts {
		if conv.Expired(now, s.ttl) {
			delete(s.contexts, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored contexts, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}
