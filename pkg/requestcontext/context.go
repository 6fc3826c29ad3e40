// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Values are set by transport middleware and consumed by services. Keeping
// this package free of net/http lets services read request-scoped identity
// and time without pulling in transport code.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	email := requestcontext.Email(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithEmail(ctx, "partner@example.com")
package requestcontext

import (
	"context"
	"time"

	id "ledgerdesk/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey      struct{}
	emailKey       struct{}
	adminKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyEmail       = emailKey{}
	ContextKeyAdmin       = adminKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// Email retrieves the authenticated caller's email from the context.
// The invitation accept flow compares this against the invitation's email.
func Email(ctx context.Context) string {
	if email, ok := ctx.Value(ContextKeyEmail).(string); ok {
		return email
	}
	return ""
}

// WithEmail injects the caller's email into the context.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextKeyEmail, email)
}

// IsAdmin reports whether the caller holds the full-privilege read scope
// (unmasked identifier reads, cleanup sweeps).
func IsAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(ContextKeyAdmin).(bool)
	return ok && admin
}

// WithAdmin marks the context as holding the full-privilege scope.
func WithAdmin(ctx context.Context, admin bool) context.Context {
	return context.WithValue(ctx, ContextKeyAdmin, admin)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like sweeps, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain, and for sweeps that
// need one consistent time across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
