package privacy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Normalize strips all whitespace from an identifier so formatting
// differences ("123 456 789" vs "123456789") collapse to one identity.
// Applied before both hashing and encrypting.
func Normalize(value string) string {
	return strings.Join(strings.Fields(value), "")
}

// Indexer computes the deterministic keyed digest of a normalized identifier.
// The digest supports equality lookups only; HMAC-SHA256 under a server-side
// key (distinct from the cipher key) makes it one-way and unforgeable without
// the key.
type Indexer struct {
	key    []byte
	logger *slog.Logger
}

// NewIndexer builds an Indexer from the digest key.
func NewIndexer(key []byte, logger *slog.Logger) *Indexer {
	return &Indexer{key: key, logger: logger}
}

// NewDisabledIndexer builds an Indexer for deployments without a digest key.
// It produces no digests, so uniqueness checks and equality search are
// skipped rather than leaking normalized plaintext into an index column.
func NewDisabledIndexer(logger *slog.Logger) *Indexer {
	return &Indexer{logger: logger}
}

// Digest returns the fixed-length hex digest of the normalized value, or the
// empty string when the value is empty (a cleared field holds no digest).
func (ix *Indexer) Digest(value string) string {
	normalized := Normalize(value)
	if normalized == "" {
		return ""
	}
	if ix == nil || len(ix.key) == 0 {
		if ix != nil && ix.logger != nil {
			ix.logger.Warn("digest key absent, identifier will not be indexed")
		}
		return ""
	}
	mac := hmac.New(sha256.New, ix.key)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// Enabled reports whether the indexer holds a key and will produce digests.
func (ix *Indexer) Enabled() bool {
	return ix != nil && len(ix.key) > 0
}
