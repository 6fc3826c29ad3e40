package invitation

import (
	"context"
	"strings"
	"sync"
	"time"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory invitation store for one party type.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.InvitationID]*Invitation
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.InvitationID]*Invitation)}
}

// NewInMemoryStores builds one in-memory store per party type.
func NewInMemoryStores() Stores {
	stores := make(Stores, len(id.PartyTypes))
	for _, t := range id.PartyTypes {
		stores[t] = NewInMemory()
	}
	return stores
}

func (s *InMemory) Create(_ context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[inv.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *inv
	s.records[inv.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, invitationID id.InvitationID) (*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.records[invitationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (s *InMemory) ListLiveByEmail(_ context.Context, email string, now time.Time) ([]*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Invitation
	for _, inv := range s.records {
		if inv.AcceptedAt == nil && !inv.IsExpired(now) && strings.EqualFold(inv.Email, email) {
			copied := *inv
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) MarkAccepted(_ context.Context, invitationID id.InvitationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.records[invitationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inv.AcceptedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	inv.AcceptedAt = &at
	return nil
}

func (s *InMemory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reaped := 0
	for invID, inv := range s.records {
		if inv.AcceptedAt == nil && inv.IsExpired(now) {
			delete(s.records, invID)
			reaped++
		}
	}
	return reaped, nil
}
