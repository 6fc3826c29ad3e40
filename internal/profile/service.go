package profile

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/audit"
	"ledgerdesk/internal/platform/metrics"
	"ledgerdesk/internal/privacy"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/requestcontext"
)

// AuditPublisher records profile events on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates profile upserts and reads. Identifier writes flow
// cipher -> indexer -> uniqueness guard -> store; reads decrypt and mask.
type Service struct {
	profiles Store
	accounts account.Store
	cipher   *privacy.Cipher
	indexer  *privacy.Indexer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  AuditPublisher
	tracer   trace.Tracer
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

// New constructs a Service. Cipher and indexer are constructor-time
// dependencies so tests inject deterministic keys.
func New(profiles Store, accounts account.Store, cipher *privacy.Cipher, indexer *privacy.Indexer, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		accounts: accounts,
		cipher:   cipher,
		indexer:  indexer,
		tracer:   otel.Tracer("ledgerdesk/profile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert creates or updates the account's profile of the given kind. A TaxID
// in the request is normalized, digested, checked for global uniqueness, and
// encrypted before anything persists.
func (s *Service) Upsert(ctx context.Context, accountID id.AccountID, kind account.Kind, req Upsert) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "profile.upsert")
	defer span.End()

	acct, err := s.requireOwnedAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Kind != kind {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile kind does not match account kind")
	}

	now := requestcontext.Now(ctx)
	current, err := s.profiles.FindByAccount(ctx, accountID, kind)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
		}
		current = &Profile{AccountID: accountID, Kind: kind, CreatedAt: now}
	}

	if req.LegalName != nil {
		current.LegalName = *req.LegalName
	}
	if req.TradingName != nil {
		current.TradingName = *req.TradingName
	}
	if req.RegistrationNumber != nil {
		current.RegistrationNumber = *req.RegistrationNumber
	}
	if req.TaxID != nil {
		if err := s.applyIdentifier(ctx, current, *req.TaxID); err != nil {
			return nil, err
		}
	}
	current.UpdatedAt = now

	if err := current.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.Upsert(ctx, current); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write profile")
	}

	s.emitAudit(ctx, audit.Event{Action: audit.EventProfileUpserted, AccountID: accountID.String()})
	if s.metrics != nil {
		s.metrics.ProfilesUpserted.Inc()
	}
	return s.view(current, false), nil
}

// applyIdentifier replaces or clears the profile's tax identifier. Clearing
// drops ciphertext and digest atomically; writing runs the uniqueness guard
// before any mutation.
func (s *Service) applyIdentifier(ctx context.Context, p *Profile, raw string) error {
	normalized := privacy.Normalize(raw)
	if normalized == "" {
		p.TaxIDCiphertext = ""
		p.TaxIDDigest = ""
		return nil
	}

	digest := s.indexer.Digest(normalized)
	if err := s.checkIdentifierUnique(ctx, p.AccountID, digest); err != nil {
		return err
	}

	ciphertext, err := s.cipher.Encrypt(normalized)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt identifier")
	}
	p.TaxIDCiphertext = ciphertext
	p.TaxIDDigest = digest
	return nil
}

// checkIdentifierUnique is the uniqueness guard. A digest match on another
// account rejects the write unless that account is closed; closed accounts
// have relinquished the identifier. Check-then-write is best effort under
// concurrency; the conflict payload carries the competing account summary.
func (s *Service) checkIdentifierUnique(ctx context.Context, accountID id.AccountID, digest string) error {
	if digest == "" {
		// Degraded mode stores no digest, so there is nothing to compare.
		return nil
	}
	matches, err := s.profiles.FindByDigest(ctx, digest)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check identifier uniqueness")
	}
	for _, match := range matches {
		if match.AccountID == accountID {
			continue
		}
		owner, err := s.accounts.FindByID(ctx, match.AccountID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Orphaned profile row; its account is gone, so it cannot
				// hold the identifier.
				continue
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conflicting account")
		}
		if owner.IsClosed() {
			continue
		}
		s.emitAudit(ctx, audit.Event{
			Action:    audit.EventIdentifierConflict,
			AccountID: accountID.String(),
			Subject:   owner.ID.String(),
		})
		if s.metrics != nil {
			s.metrics.IdentifierConflicts.Inc()
		}
		return dErrors.New(dErrors.CodeConflict, "identifier already linked to another account").
			Add("conflicting_account", owner.Summary())
	}
	return nil
}

// Get returns the profile view. The default path masks the identifier; the
// reveal path requires the full-privilege scope and returns it decrypted.
func (s *Service) Get(ctx context.Context, accountID id.AccountID, kind account.Kind, reveal bool) (*View, error) {
	if _, err := s.requireOwnedAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if reveal && !requestcontext.IsAdmin(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "unmasked read requires full privilege")
	}

	p, err := s.profiles.FindByAccount(ctx, accountID, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return s.view(p, reveal), nil
}

// view decrypts the identifier for display. A decrypt failure marks the
// field unavailable instead of failing the read; one bad row must not break
// browsing.
func (s *Service) view(p *Profile, reveal bool) *View {
	v := &View{
		AccountID:          p.AccountID,
		Kind:               p.Kind,
		LegalName:          p.LegalName,
		TradingName:        p.TradingName,
		RegistrationNumber: p.RegistrationNumber,
		HasTaxID:           p.TaxIDCiphertext != "",
		UpdatedAt:          p.UpdatedAt,
	}
	if p.TaxIDCiphertext == "" {
		return v
	}
	plaintext, err := s.cipher.Decrypt(p.TaxIDCiphertext)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("tax identifier unreadable",
				"account_id", p.AccountID.String(),
				"error", err.Error(),
			)
		}
		v.TaxIDUnavailable = true
		return v
	}
	if reveal {
		v.TaxID = plaintext
	} else {
		v.TaxID = privacy.Mask(plaintext)
	}
	return v
}

// requireOwnedAccount loads the account and enforces caller ownership unless
// the caller holds the full-privilege scope.
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
