package invitation

import (
	"context"
	"time"

	id "ledgerdesk/pkg/domain"
)

// Store persists invitations for one party type.
//
// Implementations return sentinel errors; services translate them into coded
// errors at the boundary.
type Store interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, invitationID id.InvitationID) (*Invitation, error)

	// ListLiveByEmail returns invitations for the email that are neither
	// accepted nor expired as of now. Verification bcrypt-compares against
	// each in turn; per email the set is small and bounded by expiry.
	ListLiveByEmail(ctx context.Context, email string, now time.Time) ([]*Invitation, error)

	MarkAccepted(ctx context.Context, invitationID id.InvitationID, at time.Time) error

	// DeleteExpired removes unaccepted invitations past their expiry and
	// returns how many were reaped.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Stores holds one Store per party type.
type Stores map[id.PartyType]Store

func (s Stores) ForType(t id.PartyType) Store {
	return s[t]
}
