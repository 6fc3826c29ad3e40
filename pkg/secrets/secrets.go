// Package secrets generates and verifies single-use invitation tokens.
//
// Tokens are random 32-byte values (256 bits of entropy) stored only as
// bcrypt hashes. The slow salted hash is defense in depth: even though tokens
// are high-entropy, a leaked table of hashes must still resist offline
// brute force. The salt also means hashes are not searchable; callers scan a
// candidate set and Verify each row.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "ledgerdesk/pkg/domain-errors"
)

// GenerateToken creates a cryptographically secure random token.
// Returns a base64-encoded string delivered out-of-band exactly once.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken creates a bcrypt hash of the provided token for storage.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "token is too long")
		}
		return "", fmt.Errorf("could not hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken checks a raw token against a stored bcrypt hash.
// The bcrypt comparison is constant-time with respect to the token bytes.
func VerifyToken(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
		}
		return fmt.Errorf("could not verify token: %w", err)
	}
	return nil
}
