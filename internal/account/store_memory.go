package account

import (
	"context"
	"sync"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory account store for tests and local
// development.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.AccountID]*Account)}
}

func (s *InMemory) Create(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acct.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *acct
	s.accounts[acct.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

func (s *InMemory) FindByOwner(_ context.Context, ownerID id.UserID) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Account
	for _, acct := range s.accounts {
		if acct.OwnerUserID == ownerID {
			copied := *acct
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, accountID id.AccountID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	acct.Status = status
	return nil
}
