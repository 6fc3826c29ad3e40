package party

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/audit"
	"ledgerdesk/internal/platform/metrics"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/requestcontext"
)

// InvitationIssuer mints and dispatches a single-use invitation for a party.
// The invitation service implements it; the dependency points this way so
// the party package stays free of token concerns.
type InvitationIssuer interface {
	Issue(ctx context.Context, req IssueRequest) error
}

// IssueRequest is the snapshot handed to the issuer when a party is added,
// re-invited after an email change, or resent.
type IssueRequest struct {
	AccountID  id.AccountID
	PartyType  id.PartyType
	Email      string
	Name       string
	Role       string
	Percentage float64
}

// AuditPublisher records party events on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the party lifecycle for all three party types.
type Service struct {
	stores   Stores
	accounts account.Store
	issuer   InvitationIssuer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func New(stores Stores, accounts account.Store, issuer InvitationIssuer, opts ...Option) *Service {
	s := &Service{stores: stores, accounts: accounts, issuer: issuer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRequest carries the owner's add-party submission.
type AddRequest struct {
	Email              string
	Name               string
	Role               string
	IsDirector         bool
	IsShareholder      bool
	OwnershipPercent   float64
	IsTrustee          bool
	IsBeneficiary      bool
	BeneficiaryPercent float64
}

// Add creates a PENDING party and issues an invitation in the same
// operation. A party with the same email already on the account is rejected
// before any state changes.
func (s *Service) Add(ctx context.Context, accountID id.AccountID, partyType id.PartyType, req AddRequest) (*Record, error) {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	desc := DescriptorFor(partyType)
	store := s.stores.ForType(partyType)

	if _, err := store.FindByAccountAndEmail(ctx, accountID, email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "party with this email already exists on the account")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for duplicate party")
	}

	now := requestcontext.Now(ctx)
	record := &Record{
		ID:                 id.NewPartyID(),
		AccountID:          accountID,
		Type:               partyType,
		Email:              email,
		Name:               req.Name,
		Role:               req.Role,
		IsDirector:         req.IsDirector,
		IsShareholder:      req.IsShareholder,
		OwnershipPercent:   req.OwnershipPercent,
		IsTrustee:          req.IsTrustee,
		IsBeneficiary:      req.IsBeneficiary,
		BeneficiaryPercent: req.BeneficiaryPercent,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := desc.ValidateFlags(record); err != nil {
		return nil, err
	}

	if err := store.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create party")
	}

	if err := s.issuer.Issue(ctx, IssueRequest{
		AccountID:  accountID,
		PartyType:  partyType,
		Email:      email,
		Name:       req.Name,
		Role:       req.Role,
		Percentage: desc.Percentage(record),
	}); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventPartyAdded,
		AccountID: accountID.String(),
		PartyType: partyType.String(),
		Subject:   record.ID.String(),
	})
	return record, nil
}

// List returns all parties of one type on the account.
func (s *Service) List(ctx context.Context, accountID id.AccountID, partyType id.PartyType) ([]*Record, error) {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return nil, err
	}
	records, err := s.stores.ForType(partyType).ListByAccount(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parties")
	}
	return records, nil
}

// UpdateRequest carries an owner edit. Nil pointers leave fields unchanged.
type UpdateRequest struct {
	Email              *string
	Name               *string
	Role               *string
	IsDirector         *bool
	IsShareholder      *bool
	OwnershipPercent   *float64
	IsTrustee          *bool
	IsBeneficiary      *bool
	BeneficiaryPercent *float64
}

// Edit mutates a party. Changing the email invalidates prior approval: the
// record returns to PENDING, the user reference is cleared, and a fresh
// invitation goes out. Old invitations are not revoked; acceptance checks
// the (account, email) pair, so they become irrelevant or expire.
func (s *Service) Edit(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID, req UpdateRequest) (*Record, error) {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return nil, err
	}
	desc := DescriptorFor(partyType)
	store := s.stores.ForType(partyType)

	record, err := s.loadAccountParty(ctx, store, accountID, partyID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	emailChanged := false
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "email cannot be empty")
		}
		if !strings.EqualFold(email, record.Email) {
			if existing, err := store.FindByAccountAndEmail(ctx, accountID, email); err == nil && existing.ID != record.ID {
				return nil, dErrors.New(dErrors.CodeConflict, "party with this email already exists on the account")
			} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for duplicate party")
			}
		}
		emailChanged = record.ApplyEmailChange(email, now)
	}
	if req.Name != nil {
		record.Name = *req.Name
	}
	if req.Role != nil {
		record.Role = *req.Role
	}
	if req.IsDirector != nil {
		record.IsDirector = *req.IsDirector
	}
	if req.IsShareholder != nil {
		record.IsShareholder = *req.IsShareholder
	}
	if req.OwnershipPercent != nil {
		record.OwnershipPercent = *req.OwnershipPercent
	}
	if req.IsTrustee != nil {
		record.IsTrustee = *req.IsTrustee
	}
	if req.IsBeneficiary != nil {
		record.IsBeneficiary = *req.IsBeneficiary
	}
	if req.BeneficiaryPercent != nil {
		record.BeneficiaryPercent = *req.BeneficiaryPercent
	}
	record.UpdatedAt = now

	if err := desc.ValidateFlags(record); err != nil {
		return nil, err
	}
	if err := store.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update party")
	}

	if emailChanged {
		if err := s.issuer.Issue(ctx, IssueRequest{
			AccountID:  accountID,
			PartyType:  partyType,
			Email:      record.Email,
			Name:       record.Name,
			Role:       record.Role,
			Percentage: desc.Percentage(record),
		}); err != nil {
			return nil, err
		}
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventPartyEdited,
		AccountID: accountID.String(),
		PartyType: partyType.String(),
		Subject:   record.ID.String(),
	})
	return record, nil
}

// Remove takes a party off the account. Trust parties are soft-removed so
// the association history survives; company and partnership parties are
// hard-deleted.
func (s *Service) Remove(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID) error {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return err
	}
	desc := DescriptorFor(partyType)
	store := s.stores.ForType(partyType)

	record, err := s.loadAccountParty(ctx, store, accountID, partyID)
	if err != nil {
		return err
	}

	if desc.SoftRemove {
		record.ApplyRemoval(requestcontext.Now(ctx))
		if err := store.Update(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove party")
		}
	} else {
		if err := store.Delete(ctx, partyID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete party")
		}
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventPartyRemoved,
		AccountID: accountID.String(),
		PartyType: partyType.String(),
		Subject:   partyID.String(),
	})
	return nil
}

// Resend mints a fresh invitation for a still-pending party without touching
// its state. Multiple live invitations for one (account, email) pair are
// expected; verification tolerates them.
func (s *Service) Resend(ctx context.Context, accountID id.AccountID, partyType id.PartyType, partyID id.PartyID) error {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return err
	}
	desc := DescriptorFor(partyType)
	store := s.stores.ForType(partyType)

	record, err := s.loadAccountParty(ctx, store, accountID, partyID)
	if err != nil {
		return err
	}
	if err := record.CanResend(); err != nil {
		return dErrors.New(dErrors.CodeConflict, "invitation can only be resent while pending")
	}

	return s.issuer.Issue(ctx, IssueRequest{
		AccountID:  accountID,
		PartyType:  partyType,
		Email:      record.Email,
		Name:       record.Name,
		Role:       record.Role,
		Percentage: desc.Percentage(record),
	})
}

// Respond records the invited party's approve/reject decision. Legal only
// from PENDING, exactly once, and only for the person the record names.
func (s *Service) Respond(ctx context.Context, partyType id.PartyType, partyID id.PartyID, approve bool) (*Record, error) {
	store := s.stores.ForType(partyType)
	record, err := store.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "party not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}

	caller := requestcontext.UserID(ctx)
	callerEmail := normalizeEmail(requestcontext.Email(ctx))
	identified := (record.UserID != nil && *record.UserID == caller) ||
		(callerEmail != "" && strings.EqualFold(record.Email, callerEmail))
	if !identified {
		return nil, dErrors.New(dErrors.CodeForbidden, "request is not addressed to caller")
	}

	if err := record.CanRespond(); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "already responded")
	}
	record.ApplyResponse(approve, caller, requestcontext.Now(ctx))
	if err := store.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record response")
	}

	if s.metrics != nil {
		if approve {
			s.metrics.PartiesApproved.Inc()
		} else {
			s.metrics.PartiesRejected.Inc()
		}
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventPartyResponded,
		AccountID: record.AccountID.String(),
		PartyType: partyType.String(),
		Subject:   record.ID.String(),
	})
	return record, nil
}

func (s *Service) loadAccountParty(ctx context.Context, store Store, accountID id.AccountID, partyID id.PartyID) (*Record, error) {
	record, err := store.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "party not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	if record.AccountID != accountID {
		return nil, dErrors.New(dErrors.CodeNotFound, "party not found")
	}
	return record, nil
}

func (s *Service) requireOwnedAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	caller := requestcontext.UserID(ctx)
	if !requestcontext.IsAdmin(ctx) && acct.OwnerUserID != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "account does not belong to caller")
	}
	return acct, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err.Error())
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
