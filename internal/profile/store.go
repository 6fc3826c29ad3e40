package profile

import (
	"context"

	"ledgerdesk/internal/account"
	id "ledgerdesk/pkg/domain"
)

// Store is the persistence port for profiles. FindByDigest spans every
// profile variant; the uniqueness guard needs all matches regardless of kind.
// Implementations return sentinel.ErrNotFound for missing rows.
type Store interface {
	Upsert(ctx context.Context, p *Profile) error
	FindByAccount(ctx context.Context, accountID id.AccountID, kind account.Kind) (*Profile, error)
	FindByDigest(ctx context.Context, digest string) ([]*Profile, error)
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error
}
