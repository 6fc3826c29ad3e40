package audit

import (
	"context"
	"time"

	id "ledgerdesk/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    string
	AccountID string
	PartyType string
	Action    string
	Subject   string
	Reason    string
}

// Action names recorded on the audit trail.
const (
	EventProfileUpserted      = "profile.upserted"
	EventIdentifierConflict   = "profile.identifier_conflict"
	EventPartyAdded           = "party.added"
	EventPartyEdited          = "party.edited"
	EventPartyRemoved         = "party.removed"
	EventPartyResponded       = "party.responded"
	EventInvitationIssued     = "invitation.issued"
	EventInvitationAccepted   = "invitation.accepted"
	EventInvitationsReaped    = "invitation.reaped"
	EventInvitationThrottled  = "invitation.verify_throttled"
	EventInvitationVerifyFail = "invitation.verify_failed"
)

// Store is the append-only persistence port for the audit trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
