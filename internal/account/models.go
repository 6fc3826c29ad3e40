// Package account carries the minimal account model this subsystem needs:
// ownership, display name, and lifecycle status. Full account lifecycle
// bookkeeping lives elsewhere; the uniqueness guard only needs to know who
// owns a conflicting profile and whether that account is closed.
package account

import (
	"time"

	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

// Status is the account lifecycle status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// Kind mirrors the legal structure the account represents.
type Kind string

const (
	KindIndividual  Kind = "individual"
	KindCompany     Kind = "company"
	KindTrust       Kind = "trust"
	KindPartnership Kind = "partnership"
)

// ParseKind validates a profile kind from request input.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindIndividual, KindCompany, KindTrust, KindPartnership:
		return Kind(raw), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown profile kind")
}

// Account is one legal account owned by exactly one user.
type Account struct {
	ID          id.AccountID
	OwnerUserID id.UserID
	DisplayName string
	Kind        Kind
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsClosed reports whether the account has relinquished its identifiers.
// A closed account's tax identifier digest no longer blocks reuse.
func (a *Account) IsClosed() bool {
	return a.Status == StatusClosed
}

// Summary is the payload attached to duplicate-identifier conflicts so the
// caller can present "already linked to account X (status Y)".
type Summary struct {
	ID          id.AccountID `json:"id"`
	DisplayName string       `json:"display_name"`
	Status      Status       `json:"status"`
}

func (a *Account) Summary() Summary {
	return Summary{ID: a.ID, DisplayName: a.DisplayName, Status: a.Status}
}
