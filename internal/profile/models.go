// Package profile owns the per-account business profile, including the
// encrypted tax identifier and its deterministic digest. One profile row
// exists per account per variant; the variant is a tagged kind, not a loose
// record shape.
package profile

import (
	"time"

	"ledgerdesk/internal/account"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

// Profile is the stored record. TaxIDCiphertext and TaxIDDigest move
// together: the digest is present if and only if the ciphertext holds a
// non-empty value. Plaintext never persists.
type Profile struct {
	AccountID          id.AccountID
	Kind               account.Kind
	LegalName          string
	TradingName        string
	RegistrationNumber string
	TaxIDCiphertext    string
	TaxIDDigest        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate enforces the ciphertext/digest pairing invariant before a write.
func (p *Profile) Validate() error {
	if (p.TaxIDCiphertext == "") != (p.TaxIDDigest == "") {
		// Degraded mode (no digest key) legitimately stores ciphertext
		// without a digest, never the reverse.
		if p.TaxIDCiphertext == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "digest present without ciphertext")
		}
	}
	return nil
}

// Upsert carries one profile write. Nil pointers leave the field unchanged;
// a pointer to the empty string clears it. Clearing TaxID clears ciphertext
// and digest atomically.
type Upsert struct {
	LegalName          *string
	TradingName        *string
	RegistrationNumber *string
	TaxID              *string
}

// View is the read-side representation handed to transports. TaxID carries
// the masked (or, on the full-privilege path, decrypted) value;
// TaxIDUnavailable marks rows whose ciphertext could not be opened.
type View struct {
	AccountID          id.AccountID `json:"account_id"`
	Kind               account.Kind `json:"kind"`
	LegalName          string       `json:"legal_name,omitempty"`
	TradingName        string       `json:"trading_name,omitempty"`
	RegistrationNumber string       `json:"registration_number,omitempty"`
	TaxID              string       `json:"tax_id,omitempty"`
	HasTaxID           bool         `json:"has_tax_id"`
	TaxIDUnavailable   bool         `json:"tax_id_unavailable,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
