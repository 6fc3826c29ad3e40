package testutil

import (
	"net/http"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/requestcontext"
)

// WithUser attaches an authenticated caller to the request context, the way
// the auth middleware would after validating a token. Invalid user IDs are
// silently ignored.
func WithUser(req *http.Request, userID, email string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if email != "" {
		ctx = requestcontext.WithEmail(ctx, email)
	}
	return req.WithContext(ctx)
}

// WithAdmin marks the request context as an admin caller.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context(), true))
}
