package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness rule in the store rejected the write
// - ErrExpired: invitation has passed its expiry
// - ErrAlreadyUsed: invitation already accepted
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailableValue: stored ciphertext could not be decrypted; treat the
//   field as unreadable, never as fatal
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExpired          = errors.New("expired")
	ErrAlreadyUsed      = errors.New("already used")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnavailableValue = errors.New("value unavailable")
	ErrUnavailable      = errors.New("unavailable")
)
