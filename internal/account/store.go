package account

import (
	"context"

	id "ledgerdesk/pkg/domain"
)

// Store is the persistence port for accounts. Implementations return
// sentinel.ErrNotFound for missing rows.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*Account, error)
	FindByOwner(ctx context.Context, ownerID id.UserID) ([]*Account, error)
	UpdateStatus(ctx context.Context, accountID id.AccountID, status Status) error
}
