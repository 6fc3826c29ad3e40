package party

import (
	"context"
	"strings"
	"sync"
	"time"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory party store for one party type.
type InMemory struct {
	mu      sync.RWMutex
	desc    TypeDescriptor
	records map[id.PartyID]*Record
}

func NewInMemory(desc TypeDescriptor) *InMemory {
	return &InMemory{desc: desc, records: make(map[id.PartyID]*Record)}
}

// NewInMemoryStores builds one in-memory store per party type.
func NewInMemoryStores() Stores {
	stores := make(Stores, len(id.PartyTypes))
	for _, t := range id.PartyTypes {
		stores[t] = NewInMemory(DescriptorFor(t))
	}
	return stores
}

func (s *InMemory) Create(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *r
	s.records[r.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, partyID id.PartyID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *InMemory) FindByAccountAndEmail(_ context.Context, accountID id.AccountID, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.AccountID == accountID && strings.EqualFold(r.Email, email) && r.Status != StatusRemoved {
			copied := *r
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByAccount(_ context.Context, accountID id.AccountID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.AccountID == accountID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) ListPendingFor(_ context.Context, userID id.UserID, email string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.Status != StatusPending {
			continue
		}
		if (r.UserID != nil && *r.UserID == userID) || strings.EqualFold(r.Email, email) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *r
	s.records[r.ID] = &copied
	return nil
}

func (s *InMemory) Delete(_ context.Context, partyID id.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[partyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, partyID)
	return nil
}

func (s *InMemory) ClaimPending(_ context.Context, accountID id.AccountID, email string, userID id.UserID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := 0
	for _, r := range s.records {
		if r.AccountID == accountID && strings.EqualFold(r.Email, email) && r.Status == StatusPending {
			r.ApplyClaim(userID, now)
			claimed++
		}
	}
	return claimed, nil
}
