//go:build integration

package invitation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ledgerdesk/internal/invitation"
	"ledgerdesk/internal/party"
	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/testutil/containers"
)

type PostgresInvitationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	stores   invitation.Stores
	parties  party.Stores
}

func TestPostgresInvitationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresInvitationSuite))
}

func (s *PostgresInvitationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.stores = invitation.NewPostgresStores(s.postgres.DB)
	s.parties = party.NewPostgresStores(s.postgres.DB)
}

func (s *PostgresInvitationSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"company_invitations", "partnership_invitations", "trust_invitations",
		"company_parties", "partnership_parties", "trust_parties",
	)
	s.Require().NoError(err)
}

func (s *PostgresInvitationSuite) newInvitation(accountID id.AccountID, email string, expiresAt time.Time) *invitation.Invitation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &invitation.Invitation{
		ID:        id.InvitationID(uuid.New()),
		AccountID: accountID,
		Type:      id.PartyTypeCompany,
		Email:     email,
		Name:      "Dana Holt",
		Role:      "director",
		TokenHash: "$2a$10$" + uuid.NewString(),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
}

func (s *PostgresInvitationSuite) TestListLiveByEmailFiltersExpiredAndAccepted() {
	ctx := context.Background()
	store := s.stores[id.PartyTypeCompany]
	accountID := id.AccountID(uuid.New())
	now := time.Now().UTC()

	live := s.newInvitation(accountID, "dana@example.com", now.Add(time.Hour))
	expired := s.newInvitation(accountID, "dana@example.com", now.Add(-time.Hour))
	accepted := s.newInvitation(accountID, "dana@example.com", now.Add(time.Hour))
	other := s.newInvitation(accountID, "someone.else@example.com", now.Add(time.Hour))

	for _, inv := range []*invitation.Invitation{live, expired, accepted, other} {
		s.Require().NoError(store.Create(ctx, inv))
	}
	s.Require().NoError(store.MarkAccepted(ctx, accepted.ID, now))

	found, err := store.ListLiveByEmail(ctx, "Dana@Example.COM", now)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(live.ID, found[0].ID)
	s.Equal(id.PartyTypeCompany, found[0].Type)
}

func (s *PostgresInvitationSuite) TestMarkAcceptedIsSingleUse() {
	ctx := context.Background()
	store := s.stores[id.PartyTypeCompany]
	inv := s.newInvitation(id.AccountID(uuid.New()), "dana@example.com", time.Now().Add(time.Hour))
	s.Require().NoError(store.Create(ctx, inv))

	now := time.Now().UTC()
	s.Require().NoError(store.MarkAccepted(ctx, inv.ID, now))

	err := store.MarkAccepted(ctx, inv.ID, now.Add(time.Second))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := store.FindByID(ctx, inv.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.AcceptedAt)
	s.WithinDuration(now, *found.AcceptedAt, time.Millisecond)
}

func (s *PostgresInvitationSuite) TestDeleteExpiredSparesAcceptedRows() {
	ctx := context.Background()
	store := s.stores[id.PartyTypeCompany]
	accountID := id.AccountID(uuid.New())
	now := time.Now().UTC()

	expired := s.newInvitation(accountID, "a@example.com", now.Add(-time.Hour))
	acceptedExpired := s.newInvitation(accountID, "b@example.com", now.Add(-time.Hour))
	live := s.newInvitation(accountID, "c@example.com", now.Add(time.Hour))

	for _, inv := range []*invitation.Invitation{expired, acceptedExpired, live} {
		s.Require().NoError(store.Create(ctx, inv))
	}
	s.Require().NoError(store.MarkAccepted(ctx, acceptedExpired.ID, now.Add(-2*time.Hour)))

	reaped, err := store.DeleteExpired(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, reaped)

	_, err = store.FindByID(ctx, expired.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = store.FindByID(ctx, acceptedExpired.ID)
	s.Require().NoError(err)
	_, err = store.FindByID(ctx, live.ID)
	s.Require().NoError(err)
}

func (s *PostgresInvitationSuite) TestClaimPendingApprovesAllMatches() {
	ctx := context.Background()
	partyStore := s.parties[id.PartyTypeCompany]
	accountID := id.AccountID(uuid.New())
	userID := id.UserID(uuid.New())
	now := time.Now().UTC().Truncate(time.Microsecond)

	mine := &party.Record{
		ID:        id.PartyID(uuid.New()),
		AccountID: accountID,
		Email:     "dana@example.com",
		Name:      "Dana Holt",
		Role:      "director",
		Status:    party.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	otherEmail := &party.Record{
		ID:        id.PartyID(uuid.New()),
		AccountID: accountID,
		Email:     "someone.else@example.com",
		Status:    party.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(partyStore.Create(ctx, mine))
	s.Require().NoError(partyStore.Create(ctx, otherEmail))

	claimed, err := partyStore.ClaimPending(ctx, accountID, "Dana@Example.com", userID, now)
	s.Require().NoError(err)
	s.Equal(1, claimed)

	found, err := partyStore.FindByID(ctx, mine.ID)
	s.Require().NoError(err)
	s.Equal(party.StatusApproved, found.Status)
	s.Require().NotNil(found.UserID)
	s.Equal(userID, *found.UserID)

	untouched, err := partyStore.FindByID(ctx, otherEmail.ID)
	s.Require().NoError(err)
	s.Equal(party.StatusPending, untouched.Status)
}
