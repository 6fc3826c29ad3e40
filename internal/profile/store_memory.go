package profile

import (
	"context"
	"sync"

	"ledgerdesk/internal/account"
	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

type profileKey struct {
	accountID id.AccountID
	kind      account.Kind
}

// InMemory is a mutex-guarded in-memory profile store for tests and local
// development.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[profileKey]*Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[profileKey]*Profile)}
}

func (s *InMemory) Upsert(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.profiles[profileKey{p.AccountID, p.Kind}] = &copied
	return nil
}

func (s *InMemory) FindByAccount(_ context.Context, accountID id.AccountID, kind account.Kind) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileKey{accountID, kind}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *InMemory) FindByDigest(_ context.Context, digest string) ([]*Profile, error) {
	if digest == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.TaxIDDigest == digest {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) DeleteByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.profiles {
		if key.accountID == accountID {
			delete(s.profiles, key)
		}
	}
	return nil
}
