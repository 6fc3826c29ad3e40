package invitation

import (
	"context"

	id "ledgerdesk/pkg/domain"
)

// Message is the payload handed to the delivery channel. Token is the raw
// credential; it exists only in this message and in the issuer's return
// value, never in storage.
type Message struct {
	Email       string
	Name        string
	AccountName string
	PartyType   id.PartyType
	Token       string
}

// Notifier delivers invitation messages out-of-band. Dispatch is
// fire-and-forget; the issuer does not wait on delivery success.
type Notifier interface {
	SendInvitation(ctx context.Context, msg Message) error
}

// NopNotifier discards messages. Used when no delivery channel is wired.
type NopNotifier struct{}

func (NopNotifier) SendInvitation(context.Context, Message) error { return nil }
