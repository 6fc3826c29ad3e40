// Package party owns co-owner associations on accounts. One generic record
// and state machine serve all three party types (company directors and
// shareholders, partnership partners, trust trustees and beneficiaries);
// a TypeDescriptor decides which flags apply and how removal behaves.
package party

import (
	"time"

	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

// Status is the lifecycle of a co-owner association.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRemoved  Status = "removed"
)

// Record represents one invited co-owner on one account.
//
// Invariants:
//   - Status starts PENDING when the owner adds the party
//   - APPROVED and REJECTED are reached exactly once, via the invited
//     party's response or invitation acceptance
//   - REMOVED exists only for soft-removing types (trust)
//   - UserID is a weak lookup reference, set only once identity is
//     established; an email change clears it and forces PENDING because the
//     old approval does not apply to a different person
type Record struct {
	ID                 id.PartyID
	AccountID          id.AccountID
	Type               id.PartyType
	Email              string
	Name               string
	Role               string
	IsDirector         bool
	IsShareholder      bool
	OwnershipPercent   float64
	IsTrustee          bool
	IsBeneficiary      bool
	BeneficiaryPercent float64
	Status             Status
	UserID             *id.UserID
	RespondedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanRespond checks whether the invited party may still approve or reject.
func (r *Record) CanRespond() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "already responded")
	}
	return nil
}

// ApplyResponse records the invited party's decision. Call CanRespond first.
func (r *Record) ApplyResponse(approve bool, userID id.UserID, now time.Time) {
	if approve {
		r.Status = StatusApproved
	} else {
		r.Status = StatusRejected
	}
	r.UserID = &userID
	r.RespondedAt = &now
	r.UpdatedAt = now
}

// CanResend checks whether a fresh invitation may be minted for this record.
func (r *Record) CanResend() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "party is not pending")
	}
	return nil
}

// ApplyEmailChange updates the email. A different address invalidates any
// prior approval: status returns to PENDING and the user reference is
// cleared. Returns true when the address actually changed.
func (r *Record) ApplyEmailChange(email string, now time.Time) bool {
	if email == r.Email {
		return false
	}
	r.Email = email
	r.Status = StatusPending
	r.UserID = nil
	r.RespondedAt = nil
	r.UpdatedAt = now
	return true
}

// ApplyClaim attaches the accepting user and approves the record. Used by
// the invitation accept flow for every matching PENDING record.
func (r *Record) ApplyClaim(userID id.UserID, now time.Time) {
	r.Status = StatusApproved
	r.UserID = &userID
	r.RespondedAt = &now
	r.UpdatedAt = now
}

// ApplyRemoval soft-removes the record for types that keep removal history.
func (r *Record) ApplyRemoval(now time.Time) {
	r.Status = StatusRemoved
	r.UpdatedAt = now
}
