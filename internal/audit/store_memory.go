package audit

import (
	"context"
	"sync"

	id "ledgerdesk/pkg/domain"
)

// InMemory is an append-only in-memory audit store.
type InMemory struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.UserID == userID.String() {
			out = append(out, event)
		}
	}
	return out, nil
}
