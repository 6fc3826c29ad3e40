// Package pending merges a person's open co-owner requests across the three
// party types into one view, so the invited user sees everything waiting on
// them regardless of which entity type invited them.
package pending

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/party"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

// Request is one pending party record rendered for the invited person.
type Request struct {
	PartyID     id.PartyID   `json:"party_id"`
	AccountID   id.AccountID `json:"account_id"`
	AccountName string       `json:"account_name"`
	PartyType   id.PartyType `json:"party_type"`
	Name        string       `json:"name,omitempty"`
	Role        string       `json:"role,omitempty"`
	Email       string       `json:"email"`
}

// Overview groups pending requests by party type. Empty slices are valid;
// having nothing pending is not an error.
type Overview struct {
	Company     []Request
	Partnership []Request
	Trust       []Request
}

// Service resolves pending requests for the authenticated caller.
type Service struct {
	parties  party.Stores
	accounts account.Store
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(parties party.Stores, accounts account.Store, opts ...Option) *Service {
	s := &Service{parties: parties, accounts: accounts, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForCaller collects the caller's pending records across all three party
// types. A record matches on the caller's user reference or email. The three
// lookups are independent, so they run concurrently.
func (s *Service) ForCaller(ctx context.Context) (*Overview, error) {
	userID := requestcontext.UserID(ctx)
	email := requestcontext.Email(ctx)
	if userID.IsNil() && email == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	byType := make(map[id.PartyType][]*party.Record, len(id.PartyTypes))
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]*party.Record, len(id.PartyTypes))
	for i, t := range id.PartyTypes {
		g.Go(func() error {
			records, err := s.parties.ForType(t).ListPendingFor(gctx, userID, email)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending parties")
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, t := range id.PartyTypes {
		byType[t] = results[i]
	}

	names, err := s.accountNames(ctx, byType)
	if err != nil {
		return nil, err
	}

	overview := &Overview{}
	overview.Company = s.render(byType[id.PartyTypeCompany], names)
	overview.Partnership = s.render(byType[id.PartyTypePartnership], names)
	overview.Trust = s.render(byType[id.PartyTypeTrust], names)
	return overview, nil
}

// accountNames resolves display names for every referenced account once.
func (s *Service) accountNames(ctx context.Context, byType map[id.PartyType][]*party.Record) (map[id.AccountID]string, error) {
	names := make(map[id.AccountID]string)
	for _, records := range byType {
		for _, r := range records {
			if _, seen := names[r.AccountID]; seen {
				continue
			}
			acct, err := s.accounts.FindByID(ctx, r.AccountID)
			if err != nil {
				// An orphaned record should not hide the rest of the view.
				s.logger.Warn("pending request references missing account",
					"account_id", r.AccountID.String(), "party_id", r.ID.String())
				names[r.AccountID] = ""
				continue
			}
			names[r.AccountID] = acct.DisplayName
		}
	}
	return names, nil
}

func (s *Service) render(records []*party.Record, names map[id.AccountID]string) []Request {
	out := make([]Request, 0, len(records))
	for _, r := range records {
		out = append(out, Request{
			PartyID:     r.ID,
			AccountID:   r.AccountID,
			AccountName: names[r.AccountID],
			PartyType:   r.Type,
			Name:        r.Name,
			Role:        r.Role,
			Email:       r.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartyID.String() < out[j].PartyID.String() })
	return out
}
