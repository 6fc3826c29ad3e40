package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/privacy"
	"ledgerdesk/internal/profile"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

type ProfileServiceSuite struct {
	suite.Suite
	accounts *account.InMemory
	profiles *profile.InMemory
	service  *profile.Service
	now      time.Time
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) SetupTest() {
	s.accounts = account.NewInMemory()
	s.profiles = profile.NewInMemory()

	cipher, err := privacy.NewCipher([]byte("0123456789abcdef0123456789abcdef"), nil)
	s.Require().NoError(err)
	indexer := privacy.NewIndexer([]byte("test-digest-key"), nil)

	s.service = profile.New(s.profiles, s.accounts, cipher, indexer)
	s.now = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func (s *ProfileServiceSuite) newAccount(kind account.Kind) (*account.Account, context.Context) {
	owner := id.NewUserID()
	acct := &account.Account{
		ID:          id.NewAccountID(),
		OwnerUserID: owner,
		DisplayName: "Account " + owner.String()[:8],
		Kind:        kind,
		Status:      account.StatusActive,
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.Require().NoError(s.accounts.Create(context.Background(), acct))

	ctx := requestcontext.WithUserID(context.Background(), owner)
	ctx = requestcontext.WithTime(ctx, s.now)
	return acct, ctx
}

func strPtr(v string) *string { return &v }

func (s *ProfileServiceSuite) TestUpsertStoresCiphertextAndDigestOnly() {
	acct, ctx := s.newAccount(account.KindIndividual)

	view, err := s.service.Upsert(ctx, acct.ID, account.KindIndividual, profile.Upsert{
		LegalName: strPtr("Jess Citizen"),
		TaxID:     strPtr("123 456 782"),
	})
	s.Require().NoError(err)
	s.True(view.HasTaxID)
	s.Equal("*******82", view.TaxID)

	stored, err := s.profiles.FindByAccount(ctx, acct.ID, account.KindIndividual)
	s.Require().NoError(err)
	s.NotEmpty(stored.TaxIDCiphertext)
	s.NotEmpty(stored.TaxIDDigest)
	s.NotContains(stored.TaxIDCiphertext, "123456782")
}

func (s *ProfileServiceSuite) TestClearingIdentifierClearsBothColumns() {
	acct, ctx := s.newAccount(account.KindIndividual)

	_, err := s.service.Upsert(ctx, acct.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("123456782")})
	s.Require().NoError(err)

	view, err := s.service.Upsert(ctx, acct.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("")})
	s.Require().NoError(err)
	s.False(view.HasTaxID)

	stored, err := s.profiles.FindByAccount(ctx, acct.ID, account.KindIndividual)
	s.Require().NoError(err)
	s.Empty(stored.TaxIDCiphertext)
	s.Empty(stored.TaxIDDigest)
}

func (s *ProfileServiceSuite) TestDuplicateIdentifierRejectedAcrossAccounts() {
	first, firstCtx := s.newAccount(account.KindIndividual)
	second, secondCtx := s.newAccount(account.KindIndividual)

	_, err := s.service.Upsert(firstCtx, first.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("123 456 782")})
	s.Require().NoError(err)

	s.Run("same identifier on an open account conflicts", func() {
		// Different formatting, same normalized identity.
		_, err := s.service.Upsert(secondCtx, second.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("123456782")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		detail, ok := dErrors.Load(err, "conflicting_account")
		s.Require().True(ok)
		summary, ok := detail.(account.Summary)
		s.Require().True(ok)
		s.Equal(first.ID, summary.ID)
		s.Equal(account.StatusActive, summary.Status)
	})

	s.Run("closing the first account releases the identifier", func() {
		s.Require().NoError(s.accounts.UpdateStatus(context.Background(), first.ID, account.StatusClosed))

		_, err := s.service.Upsert(secondCtx, second.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("123456782")})
		s.Require().NoError(err)
	})
}

func (s *ProfileServiceSuite) TestRewritingSameIdentifierOnSameAccountIsIdempotent() {
	acct, ctx := s.newAccount(account.KindCompany)

	_, err := s.service.Upsert(ctx, acct.ID, account.KindCompany, profile.Upsert{TaxID: strPtr("51 824 753 556")})
	s.Require().NoError(err)

	_, err = s.service.Upsert(ctx, acct.ID, account.KindCompany, profile.Upsert{TaxID: strPtr("51824753556")})
	s.Require().NoError(err)
}

func (s *ProfileServiceSuite) TestGetMasksByDefaultAndRevealsForAdmin() {
	acct, ctx := s.newAccount(account.KindIndividual)

	_, err := s.service.Upsert(ctx, acct.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("987654321")})
	s.Require().NoError(err)

	view, err := s.service.Get(ctx, acct.ID, account.KindIndividual, false)
	s.Require().NoError(err)
	s.Equal("*******21", view.TaxID)

	s.Run("reveal without privilege is forbidden", func() {
		_, err := s.service.Get(ctx, acct.ID, account.KindIndividual, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("reveal with privilege returns plaintext", func() {
		adminCtx := requestcontext.WithAdmin(ctx, true)
		view, err := s.service.Get(adminCtx, acct.ID, account.KindIndividual, true)
		s.Require().NoError(err)
		s.Equal("987654321", view.TaxID)
	})
}

func (s *ProfileServiceSuite) TestCorruptCiphertextSurfacesAsUnavailable() {
	acct, ctx := s.newAccount(account.KindIndividual)

	_, err := s.service.Upsert(ctx, acct.ID, account.KindIndividual, profile.Upsert{TaxID: strPtr("987654321")})
	s.Require().NoError(err)

	stored, err := s.profiles.FindByAccount(ctx, acct.ID, account.KindIndividual)
	s.Require().NoError(err)
	stored.TaxIDCiphertext = "aesgcm:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	s.Require().NoError(s.profiles.Upsert(ctx, stored))

	view, err := s.service.Get(ctx, acct.ID, account.KindIndividual, false)
	s.Require().NoError(err)
	s.True(view.TaxIDUnavailable)
	s.Empty(view.TaxID)
}

func (s *ProfileServiceSuite) TestOwnershipEnforced() {
	acct, _ := s.newAccount(account.KindIndividual)
	strangerCtx := requestcontext.WithUserID(context.Background(), id.NewUserID())

	_, err := s.service.Upsert(strangerCtx, acct.ID, account.KindIndividual, profile.Upsert{LegalName: strPtr("nope")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ProfileServiceSuite) TestKindMustMatchAccount() {
	acct, ctx := s.newAccount(account.KindIndividual)

	_, err := s.service.Upsert(ctx, acct.ID, account.KindCompany, profile.Upsert{LegalName: strPtr("Acme")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
