// Package domain holds identifiers and small value types shared across the
// platform. IDs are distinct UUID types so the compiler rejects cross-type
// assignment (a PartyID can never be passed where an AccountID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "ledgerdesk/pkg/domain-errors"
)

type (
	// UserID identifies a registered platform user.
	UserID uuid.UUID
	// AccountID identifies a legal account owned by a user.
	AccountID uuid.UUID
	// PartyID identifies one co-owner record on one account.
	PartyID uuid.UUID
	// InvitationID identifies a single-use invitation credential.
	InvitationID uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id AccountID) String() string    { return uuid.UUID(id).String() }
func (id PartyID) String() string      { return uuid.UUID(id).String() }
func (id InvitationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id InvitationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as canonical UUID strings. Defined types do not
// inherit uuid.UUID's methods, so these are spelled out per type.

func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id AccountID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id InvitationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PartyID) UnmarshalText(text []byte) error {
	parsed, err := ParsePartyID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *InvitationID) UnmarshalText(text []byte) error {
	parsed, err := ParseInvitationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func NewUserID() UserID             { return UserID(uuid.New()) }
func NewAccountID() AccountID       { return AccountID(uuid.New()) }
func NewPartyID() PartyID           { return PartyID(uuid.New()) }
func NewInvitationID() InvitationID { return InvitationID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs. Applied at API entry points before any store call.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

func ParseAccountID(raw string) (AccountID, error) {
	parsed, err := parseUUID(raw, "account")
	return AccountID(parsed), err
}

func ParsePartyID(raw string) (PartyID, error) {
	parsed, err := parseUUID(raw, "party")
	return PartyID(parsed), err
}

func ParseInvitationID(raw string) (InvitationID, error) {
	parsed, err := parseUUID(raw, "invitation")
	return InvitationID(parsed), err
}
