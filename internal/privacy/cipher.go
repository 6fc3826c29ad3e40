// Package privacy protects sensitive identifier fields: authenticated
// encryption at rest, a keyed deterministic digest for equality search, and
// partial masking for display.
package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ledgerdesk/pkg/platform/sentinel"
)

// cipherPrefix tags ciphertexts with the algorithm so stored values remain
// self-describing if the scheme ever changes.
const cipherPrefix = "aesgcm:"

// Cipher seals and opens sensitive field values with AES-GCM.
//
// A Cipher constructed without a key runs in degraded passthrough mode:
// Encrypt returns the plaintext unchanged with a logged warning, and Decrypt
// of a sealed value fails with sentinel.ErrUnavailableValue. This keeps the
// rest of the system usable when the key is absent in non-critical
// deployments; production wiring fails fast instead (see platform config).
type Cipher struct {
	aead   cipher.AEAD
	logger *slog.Logger
}

// NewCipher builds a Cipher from a raw AES key (16/24/32 bytes).
func NewCipher(key []byte, logger *slog.Logger) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: aead, logger: logger}, nil
}

// NewDisabledCipher builds a passthrough Cipher for deployments without a key.
func NewDisabledCipher(logger *slog.Logger) *Cipher {
	return &Cipher{logger: logger}
}

// Encrypt seals a plaintext value. Empty input (after whitespace
// normalization) yields the empty string, not an encrypted empty value, so a
// cleared field stores no ciphertext at all.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	plaintext = Normalize(plaintext)
	if plaintext == "" {
		return "", nil
	}
	if c == nil || c.aead == nil {
		c.warn("field cipher key absent, storing value unencrypted")
		return plaintext, nil
	}

	// AES-GCM requires a unique nonce per encryption under the same key.
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Persist as tag + nonce || ciphertext in one opaque string.
	payload := append(nonce, sealed...)
	return cipherPrefix + base64.RawStdEncoding.EncodeToString(payload), nil
}

// Decrypt opens a previously sealed value. Corrupt payloads or a wrong key
// fail with sentinel.ErrUnavailableValue; callers surface the field as
// unreadable rather than failing the whole read.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	encoded, sealed := strings.CutPrefix(ciphertext, cipherPrefix)
	if !sealed {
		// Legacy or degraded-mode value stored as plaintext.
		return encoded, nil
	}
	if c == nil || c.aead == nil {
		c.warn("field cipher key absent, sealed value unreadable")
		return "", sentinel.ErrUnavailableValue
	}

	payload, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable payload", sentinel.ErrUnavailableValue)
	}
	nonceSize := c.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", fmt.Errorf("%w: payload too short", sentinel.ErrUnavailableValue)
	}
	plaintext, err := c.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", sentinel.ErrUnavailableValue)
	}
	return string(plaintext), nil
}

func (c *Cipher) warn(msg string) {
	if c != nil && c.logger != nil {
		c.logger.Warn(msg)
	}
}
