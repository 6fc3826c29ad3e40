package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/party"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/requestcontext"
)

type PendingSuite struct {
	suite.Suite

	parties  party.Stores
	accounts *account.InMemory
	service  *Service

	now time.Time
}

func TestPendingSuite(t *testing.T) {
	suite.Run(t, new(PendingSuite))
}

func (s *PendingSuite) SetupTest() {
	s.parties = party.NewInMemoryStores()
	s.accounts = account.NewInMemory()
	s.service = New(s.parties, s.accounts)
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func (s *PendingSuite) newAccount(name string) id.AccountID {
	accountID := id.NewAccountID()
	err := s.accounts.Create(context.Background(), &account.Account{
		ID:          accountID,
		OwnerUserID: id.NewUserID(),
		Kind:        account.KindCompany,
		DisplayName: name,
		Status:      account.StatusActive,
	})
	s.Require().NoError(err)
	return accountID
}

func (s *PendingSuite) addParty(t id.PartyType, accountID id.AccountID, email string, status party.Status, userID *id.UserID) *party.Record {
	record := &party.Record{
		ID:        id.NewPartyID(),
		AccountID: accountID,
		Type:      t,
		Email:     email,
		Status:    status,
		UserID:    userID,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	switch t {
	case id.PartyTypeCompany:
		record.IsDirector = true
	case id.PartyTypeTrust:
		record.IsTrustee = true
	}
	s.Require().NoError(s.parties.ForType(t).Create(context.Background(), record))
	return record
}

func (s *PendingSuite) callerCtx(userID id.UserID, email string) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithEmail(ctx, email)
}

func (s *PendingSuite) TestCollectsAcrossAllThreeTypes() {
	companyAcct := s.newAccount("Harbour Freight Ltd")
	partnershipAcct := s.newAccount("Hill & Dale Partners")
	trustAcct := s.newAccount("Evergreen Family Trust")

	s.addParty(id.PartyTypeCompany, companyAcct, "pat@example.com", party.StatusPending, nil)
	s.addParty(id.PartyTypePartnership, partnershipAcct, "pat@example.com", party.StatusPending, nil)
	s.addParty(id.PartyTypeTrust, trustAcct, "pat@example.com", party.StatusPending, nil)

	overview, err := s.service.ForCaller(s.callerCtx(id.NewUserID(), "pat@example.com"))
	s.Require().NoError(err)

	s.Require().Len(overview.Company, 1)
	s.Require().Len(overview.Partnership, 1)
	s.Require().Len(overview.Trust, 1)
	s.Equal("Harbour Freight Ltd", overview.Company[0].AccountName)
	s.Equal("Hill & Dale Partners", overview.Partnership[0].AccountName)
	s.Equal("Evergreen Family Trust", overview.Trust[0].AccountName)
}

func (s *PendingSuite) TestMatchesOnUserReference() {
	accountID := s.newAccount("Harbour Freight Ltd")
	pat := id.NewUserID()
	s.addParty(id.PartyTypeCompany, accountID, "old-address@example.com", party.StatusPending, &pat)

	overview, err := s.service.ForCaller(s.callerCtx(pat, "pat@example.com"))
	s.Require().NoError(err)
	s.Len(overview.Company, 1)
}

func (s *PendingSuite) TestExcludesResolvedRecords() {
	accountID := s.newAccount("Harbour Freight Ltd")
	s.addParty(id.PartyTypeCompany, accountID, "pat@example.com", party.StatusApproved, nil)
	s.addParty(id.PartyTypeCompany, accountID, "pat2@example.com", party.StatusRejected, nil)

	overview, err := s.service.ForCaller(s.callerCtx(id.NewUserID(), "pat@example.com"))
	s.Require().NoError(err)
	s.Empty(overview.Company)
}

func (s *PendingSuite) TestEmptyViewIsNotAnError() {
	overview, err := s.service.ForCaller(s.callerCtx(id.NewUserID(), "nobody@example.com"))
	s.Require().NoError(err)
	s.Empty(overview.Company)
	s.Empty(overview.Partnership)
	s.Empty(overview.Trust)
}

func (s *PendingSuite) TestMissingAccountDoesNotHideView() {
	orphanAccount := id.NewAccountID()
	s.addParty(id.PartyTypeCompany, orphanAccount, "pat@example.com", party.StatusPending, nil)

	overview, err := s.service.ForCaller(s.callerCtx(id.NewUserID(), "pat@example.com"))
	s.Require().NoError(err)
	s.Require().Len(overview.Company, 1)
	s.Empty(overview.Company[0].AccountName)
}

func (s *PendingSuite) TestRequiresCallerIdentity() {
	_, err := s.service.ForCaller(context.Background())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
