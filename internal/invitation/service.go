package invitation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/audit"
	"ledgerdesk/internal/party"
	"ledgerdesk/internal/platform/metrics"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/email"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/platform/tx"
	"ledgerdesk/pkg/requestcontext"
	"ledgerdesk/pkg/secrets"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks ledgerdesk/internal/invitation Notifier,VerifyThrottle,AuditPublisher

// AuditPublisher records invitation events on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service issues, verifies, and redeems invitations across the three party
// types. It implements party.InvitationIssuer.
type Service struct {
	stores   Stores
	parties  party.Stores
	accounts account.Store
	notifier Notifier
	throttle VerifyThrottle
	runner   tx.Runner
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

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithThrottle(throttle VerifyThrottle) Option {
	return func(s *Service) { s.throttle = throttle }
}

func New(stores Stores, parties party.Stores, accounts account.Store, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		stores:   stores,
		parties:  parties,
		accounts: accounts,
		runner:   runner,
		notifier: NopNotifier{},
		throttle: NewMemoryThrottle(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("ledgerdesk/invitation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a fresh invitation for the request and hands the raw token to
// the notifier. Only the bcrypt hash is persisted; the raw token cannot be
// recovered after this call returns.
func (s *Service) Issue(ctx context.Context, req party.IssueRequest) error {
	token, err := secrets.GenerateToken()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invitation token")
	}
	hash, err := secrets.HashToken(token)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash invitation token")
	}

	now := requestcontext.Now(ctx)
	inv := &Invitation{
		ID:         id.NewInvitationID(),
		AccountID:  req.AccountID,
		Type:       req.PartyType,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Name:       req.Name,
		Role:       req.Role,
		Percentage: req.Percentage,
		TokenHash:  hash,
		ExpiresAt:  now.Add(Lifetime),
		CreatedAt:  now,
	}
	if err := s.stores.ForType(req.PartyType).Create(ctx, inv); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store invitation")
	}

	s.dispatch(ctx, inv, token)

	if s.metrics != nil {
		s.metrics.InvitationsIssued.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventInvitationIssued,
		AccountID: inv.AccountID.String(),
		PartyType: inv.Type.String(),
		Subject:   inv.ID.String(),
	})
	return nil
}

// dispatch hands the message to the notifier without waiting on delivery.
func (s *Service) dispatch(ctx context.Context, inv *Invitation, token string) {
	accountName := ""
	if acct, err := s.accounts.FindByID(ctx, inv.AccountID); err == nil {
		accountName = acct.DisplayName
	}
	name := inv.Name
	if name == "" {
		name = email.DeriveNameFromEmail(inv.Email)
	}
	msg := Message{
		Email:       inv.Email,
		Name:        name,
		AccountName: accountName,
		PartyType:   inv.Type,
		Token:       token,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendInvitation(ctx, msg); err != nil {
			s.logger.Warn("invitation delivery failed", "email", msg.Email, "error", err.Error())
		}
	}()
}

// Verify finds the live invitation matching the claimed email and raw token.
// Per-token salts rule out an indexed lookup, so this bcrypt-compares the
// token against each live invitation for the email across all three types.
func (s *Service) Verify(ctx context.Context, email, token string) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invitation is invalid or has expired")
	}

	allowed, err := s.throttle.Allow(ctx, email)
	if err != nil {
		s.logger.Warn("verify throttle unavailable", "error", err.Error())
	} else if !allowed {
		s.emitAudit(ctx, audit.Event{Action: audit.EventInvitationThrottled, Subject: email})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "too many verification attempts, try again later")
	}

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.TokenVerifySeconds.Observe(time.Since(start).Seconds())
		}
	}()

	now := requestcontext.Now(ctx)
	for _, t := range id.PartyTypes {
		live, err := s.stores.ForType(t).ListLiveByEmail(ctx, email, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invitations")
		}
		for _, inv := range live {
			if secrets.VerifyToken(token, inv.TokenHash) == nil {
				if err := s.throttle.Reset(ctx, email); err != nil {
					s.logger.Warn("verify throttle reset failed", "error", err.Error())
				}
				return inv, nil
			}
		}
	}

	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("verify throttle record failed", "error", err.Error())
	}
	s.emitAudit(ctx, audit.Event{Action: audit.EventInvitationVerifyFail, Subject: email})
	return nil, dErrors.New(dErrors.CodeUnauthorized, "invitation is invalid or has expired")
}

// AcceptResult reports what an accept changed.
type AcceptResult struct {
	Invitation    *Invitation
	PartiesByType map[id.PartyType]int
}

// Accept redeems an invitation for the authenticated caller. The caller's
// email must equal the invitation's email; anything else is treated as a
// forgery attempt. Marking the invitation and approving every matching
// pending party record across all three types happens in one transaction.
func (s *Service) Accept(ctx context.Context, email, token string) (*AcceptResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.accept")
	defer span.End()

	callerEmail := strings.ToLower(strings.TrimSpace(requestcontext.Email(ctx)))
	email = strings.ToLower(strings.TrimSpace(email))
	if callerEmail == "" || callerEmail != email {
		return nil, dErrors.New(dErrors.CodeForbidden, "invitation is not addressed to caller")
	}

	inv, err := s.Verify(ctx, email, token)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := inv.CanAccept(now); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invitation is invalid or has expired")
	}

	userID := requestcontext.UserID(ctx)
	result := &AcceptResult{
		Invitation:    inv,
		PartiesByType: make(map[id.PartyType]int, len(id.PartyTypes)),
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.stores.ForType(inv.Type).MarkAccepted(ctx, inv.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeUnauthorized, "invitation has already been used")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark invitation accepted")
		}
		for _, t := range id.PartyTypes {
			claimed, err := s.parties.ForType(t).ClaimPending(ctx, inv.AccountID, inv.Email, userID, now)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve party records")
			}
			result.PartiesByType[t] = claimed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accepted := now
	inv.AcceptedAt = &accepted

	if s.metrics != nil {
		s.metrics.InvitationsAccepted.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:    audit.EventInvitationAccepted,
		AccountID: inv.AccountID.String(),
		PartyType: inv.Type.String(),
		Subject:   inv.ID.String(),
	})
	return result, nil
}

// Cleanup reaps expired, unaccepted invitations across every party type and
// returns the total removed. Triggered externally; this package owns no
// timer.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	total := 0
	for _, t := range id.PartyTypes {
		reaped, err := s.stores.ForType(t).DeleteExpired(ctx, now)
		if err != nil {
			return total, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reap expired invitations")
		}
		total += reaped
	}
	if total > 0 {
		s.logger.Info("reaped expired invitations", "count", total)
		s.emitAudit(ctx, audit.Event{Action: audit.EventInvitationsReaped})
	}
	return total, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err.Error())
	}
}
