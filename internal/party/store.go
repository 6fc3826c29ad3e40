package party

import (
	"context"
	"time"

	id "ledgerdesk/pkg/domain"
)

// Store is the persistence port for one party type's table. Implementations
// return sentinel.ErrNotFound for missing rows. ClaimPending is the one
// multi-row mutation; the invitation accept flow calls it for every party
// type inside a single transaction.
type Store interface {
	Create(ctx context.Context, r *Record) error
	FindByID(ctx context.Context, partyID id.PartyID) (*Record, error)
	FindByAccountAndEmail(ctx context.Context, accountID id.AccountID, email string) (*Record, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]*Record, error)
	ListPendingFor(ctx context.Context, userID id.UserID, email string) ([]*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, partyID id.PartyID) error
	ClaimPending(ctx context.Context, accountID id.AccountID, email string, userID id.UserID, now time.Time) (int, error)
}

// Stores bundles one Store per party type.
type Stores map[id.PartyType]Store

// ForType returns the store backing a party type.
func (s Stores) ForType(t id.PartyType) Store {
	return s[t]
}
