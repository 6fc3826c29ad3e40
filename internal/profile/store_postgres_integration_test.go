//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/profile"
	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/testutil/containers"
)

type PostgresProfileSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *profile.PostgresStore
}

func TestPostgresProfileSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresProfileSuite))
}

func (s *PostgresProfileSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = profile.NewPostgres(s.postgres.DB)
}

func (s *PostgresProfileSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "profiles")
	s.Require().NoError(err)
}

func (s *PostgresProfileSuite) newProfile(kind account.Kind) *profile.Profile {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &profile.Profile{
		AccountID:          id.AccountID(uuid.New()),
		Kind:               kind,
		LegalName:          "Harbour Light Ltd",
		TradingName:        "Harbour Light",
		RegistrationNumber: "12345678",
		TaxIDCiphertext:    "dmF1bHRlZA==",
		TaxIDDigest:        "a1b2c3d4e5f6",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *PostgresProfileSuite) TestUpsertRoundTrip() {
	ctx := context.Background()
	p := s.newProfile(account.KindCompany)
	s.Require().NoError(s.store.Upsert(ctx, p))

	found, err := s.store.FindByAccount(ctx, p.AccountID, account.KindCompany)
	s.Require().NoError(err)
	s.Equal(p.LegalName, found.LegalName)
	s.Equal(p.TaxIDCiphertext, found.TaxIDCiphertext)
	s.Equal(p.TaxIDDigest, found.TaxIDDigest)
}

func (s *PostgresProfileSuite) TestUpsertOverwritesExistingRow() {
	ctx := context.Background()
	p := s.newProfile(account.KindCompany)
	s.Require().NoError(s.store.Upsert(ctx, p))

	p.LegalName = "Harbour Light Holdings Ltd"
	p.TaxIDCiphertext = "cmVrZXllZA=="
	p.TaxIDDigest = "ffeeddccbbaa"
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Upsert(ctx, p))

	found, err := s.store.FindByAccount(ctx, p.AccountID, account.KindCompany)
	s.Require().NoError(err)
	s.Equal("Harbour Light Holdings Ltd", found.LegalName)
	s.Equal("ffeeddccbbaa", found.TaxIDDigest)
}

func (s *PostgresProfileSuite) TestFindByDigestMatchesAcrossKinds() {
	ctx := context.Background()
	company := s.newProfile(account.KindCompany)
	trust := s.newProfile(account.KindTrust)
	trust.TaxIDDigest = company.TaxIDDigest
	other := s.newProfile(account.KindPartnership)
	other.TaxIDDigest = "0000deadbeef"

	for _, p := range []*profile.Profile{company, trust, other} {
		s.Require().NoError(s.store.Upsert(ctx, p))
	}

	found, err := s.store.FindByDigest(ctx, company.TaxIDDigest)
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *PostgresProfileSuite) TestEmptyDigestNeverMatches() {
	ctx := context.Background()
	p := s.newProfile(account.KindCompany)
	p.TaxIDCiphertext = ""
	p.TaxIDDigest = ""
	s.Require().NoError(s.store.Upsert(ctx, p))

	found, err := s.store.FindByDigest(ctx, "")
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *PostgresProfileSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByAccount(context.Background(), id.AccountID(uuid.New()), account.KindCompany)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
