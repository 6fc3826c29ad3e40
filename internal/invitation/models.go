// Package invitation mints, verifies, and redeems the single-use credentials
// that onboard an invited party onto an account. Raw tokens are returned to
// the caller exactly once; only a bcrypt hash is ever stored.
package invitation

import (
	"time"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// Lifetime is how long an invitation stays redeemable after issue.
const Lifetime = 7 * 24 * time.Hour

// Invitation is a single-use credential tied to one (account, email) pair.
// It is never mutated after creation except to set AcceptedAt. Several live
// invitations may exist for the same pair; resends mint new rows rather than
// rotating old ones.
type Invitation struct {
	ID         id.InvitationID
	AccountID  id.AccountID
	Type       id.PartyType
	Email      string
	Name       string
	Role       string
	Percentage float64
	TokenHash  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// IsExpired reports whether the invitation can no longer be redeemed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// CanAccept checks redemption preconditions.
func (i *Invitation) CanAccept(now time.Time) error {
	if i.AcceptedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	if i.IsExpired(now) {
		return sentinel.ErrExpired
	}
	return nil
}
