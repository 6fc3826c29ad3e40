package invitation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ledgerdesk/internal/account"
	"ledgerdesk/internal/invitation"
	"ledgerdesk/internal/invitation/mocks"
	"ledgerdesk/internal/party"
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
	"ledgerdesk/pkg/platform/tx"
	"ledgerdesk/pkg/requestcontext"
)

// captureNotifier hands delivered messages to the test over a channel so the
// fire-and-forget dispatch goroutine can be observed deterministically.
type captureNotifier struct {
	msgs chan invitation.Message
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{msgs: make(chan invitation.Message, 8)}
}

func (c *captureNotifier) SendInvitation(_ context.Context, msg invitation.Message) error {
	c.msgs <- msg
	return nil
}

func (c *captureNotifier) wait(t *testing.T) invitation.Message {
	t.Helper()
	select {
	case msg := <-c.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no invitation message delivered")
		return invitation.Message{}
	}
}

type InvitationServiceSuite struct {
	suite.Suite

	invitations invitation.Stores
	parties     party.Stores
	accounts    *account.InMemory
	notifier    *captureNotifier
	service     *invitation.Service

	owner     id.UserID
	accountID id.AccountID
	now       time.Time
}

func TestInvitationServiceSuite(t *testing.T) {
	suite.Run(t, new(InvitationServiceSuite))
}

func (s *InvitationServiceSuite) SetupTest() {
	s.invitations = invitation.NewInMemoryStores()
	s.parties = party.NewInMemoryStores()
	s.accounts = account.NewInMemory()
	s.notifier = newCaptureNotifier()
	s.service = invitation.New(s.invitations, s.parties, s.accounts, tx.NopRunner{},
		invitation.WithNotifier(s.notifier),
	)

	s.owner = id.NewUserID()
	s.accountID = id.NewAccountID()
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	err := s.accounts.Create(context.Background(), &account.Account{
		ID:          s.accountID,
		OwnerUserID: s.owner,
		Kind:        account.KindCompany,
		DisplayName: "Harbour Freight Ltd",
		Status:      account.StatusActive,
	})
	s.Require().NoError(err)
}

func (s *InvitationServiceSuite) ctxAt(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (s *InvitationServiceSuite) callerCtx(userID id.UserID, email string, at time.Time) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithEmail(ctx, email)
	return requestcontext.WithTime(ctx, at)
}

// issue mints an invitation and returns the raw token from the delivery
// message.
func (s *InvitationServiceSuite) issue(at time.Time, email string) string {
	err := s.service.Issue(s.ctxAt(at), party.IssueRequest{
		AccountID: s.accountID,
		PartyType: id.PartyTypeCompany,
		Email:     email,
		Name:      "Pat Partner",
	})
	s.Require().NoError(err)
	msg := s.notifier.wait(s.T())
	s.Require().NotEmpty(msg.Token)
	return msg.Token
}

func (s *InvitationServiceSuite) addPendingParty(email string) *party.Record {
	record := &party.Record{
		ID:         id.NewPartyID(),
		AccountID:  s.accountID,
		Type:       id.PartyTypeCompany,
		Email:      email,
		IsDirector: true,
		Status:     party.StatusPending,
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	}
	s.Require().NoError(s.parties.ForType(id.PartyTypeCompany).Create(context.Background(), record))
	return record
}

func (s *InvitationServiceSuite) TestIssueStoresHashNotToken() {
	token := s.issue(s.now, "pat@example.com")

	live, err := s.invitations.ForType(id.PartyTypeCompany).ListLiveByEmail(context.Background(), "pat@example.com", s.now)
	s.Require().NoError(err)
	s.Require().Len(live, 1)
	s.NotEqual(token, live[0].TokenHash)
	s.NotContains(live[0].TokenHash, token)
	s.Equal(s.now.Add(invitation.Lifetime), live[0].ExpiresAt)
	s.Nil(live[0].AcceptedAt)
}

func (s *InvitationServiceSuite) TestIssueIncludesAccountNameInMessage() {
	err := s.service.Issue(s.ctxAt(s.now), party.IssueRequest{
		AccountID: s.accountID,
		PartyType: id.PartyTypeCompany,
		Email:     "pat@example.com",
	})
	s.Require().NoError(err)
	msg := s.notifier.wait(s.T())
	s.Equal("Harbour Freight Ltd", msg.AccountName)
	s.Equal(id.PartyTypeCompany, msg.PartyType)
	s.Equal("Pat", msg.Name, "nameless invitations fall back to a derived name")
}

func (s *InvitationServiceSuite) TestVerifyMatchesCorrectToken() {
	token := s.issue(s.now, "pat@example.com")

	inv, err := s.service.Verify(s.ctxAt(s.now), "pat@example.com", token)
	s.Require().NoError(err)
	s.Equal(s.accountID, inv.AccountID)
	s.Equal("pat@example.com", inv.Email)
}

func (s *InvitationServiceSuite) TestVerifyRejectsWrongToken() {
	s.issue(s.now, "pat@example.com")

	_, err := s.service.Verify(s.ctxAt(s.now), "pat@example.com", "not-the-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *InvitationServiceSuite) TestVerifyRejectsWrongEmail() {
	token := s.issue(s.now, "pat@example.com")

	_, err := s.service.Verify(s.ctxAt(s.now), "other@example.com", token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *InvitationServiceSuite) TestExpiredInvitationNeverVerifies() {
	token := s.issue(s.now, "pat@example.com")

	later := s.now.Add(invitation.Lifetime)
	_, err := s.service.Verify(s.ctxAt(later), "pat@example.com", token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *InvitationServiceSuite) TestEitherOfTwoLiveTokensVerifies() {
	first := s.issue(s.now, "pat@example.com")
	second := s.issue(s.now.Add(time.Hour), "pat@example.com")
	s.NotEqual(first, second)

	at := s.now.Add(2 * time.Hour)
	invA, err := s.service.Verify(s.ctxAt(at), "pat@example.com", first)
	s.Require().NoError(err)
	invB, err := s.service.Verify(s.ctxAt(at), "pat@example.com", second)
	s.Require().NoError(err)
	s.NotEqual(invA.ID, invB.ID)
}

func (s *InvitationServiceSuite) TestAcceptApprovesMatchingParties() {
	record := s.addPendingParty("pat@example.com")
	token := s.issue(s.now, "pat@example.com")

	pat := id.NewUserID()
	result, err := s.service.Accept(s.callerCtx(pat, "pat@example.com", s.now.Add(time.Hour)), "pat@example.com", token)
	s.Require().NoError(err)
	s.Equal(1, result.PartiesByType[id.PartyTypeCompany])
	s.Equal(0, result.PartiesByType[id.PartyTypeTrust])
	s.NotNil(result.Invitation.AcceptedAt)

	stored, err := s.parties.ForType(id.PartyTypeCompany).FindByID(context.Background(), record.ID)
	s.Require().NoError(err)
	s.Equal(party.StatusApproved, stored.Status)
	s.Require().NotNil(stored.UserID)
	s.Equal(pat, *stored.UserID)
}

func (s *InvitationServiceSuite) TestAcceptIsSingleUse() {
	s.addPendingParty("pat@example.com")
	token := s.issue(s.now, "pat@example.com")
	pat := id.NewUserID()
	ctx := s.callerCtx(pat, "pat@example.com", s.now.Add(time.Hour))

	_, err := s.service.Accept(ctx, "pat@example.com", token)
	s.Require().NoError(err)

	_, err = s.service.Accept(ctx, "pat@example.com", token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *InvitationServiceSuite) TestAcceptRejectsMismatchedCaller() {
	s.addPendingParty("pat@example.com")
	token := s.issue(s.now, "pat@example.com")

	imposter := id.NewUserID()
	_, err := s.service.Accept(s.callerCtx(imposter, "imposter@example.com", s.now.Add(time.Hour)), "pat@example.com", token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *InvitationServiceSuite) TestAcceptClaimsAcrossPartyTypes() {
	companyRec := s.addPendingParty("pat@example.com")
	trustRec := &party.Record{
		ID:        id.NewPartyID(),
		AccountID: s.accountID,
		Type:      id.PartyTypeTrust,
		Email:     "pat@example.com",
		IsTrustee: true,
		Status:    party.StatusPending,
	}
	s.Require().NoError(s.parties.ForType(id.PartyTypeTrust).Create(context.Background(), trustRec))

	token := s.issue(s.now, "pat@example.com")
	pat := id.NewUserID()
	result, err := s.service.Accept(s.callerCtx(pat, "pat@example.com", s.now.Add(time.Hour)), "pat@example.com", token)
	s.Require().NoError(err)
	s.Equal(1, result.PartiesByType[id.PartyTypeCompany])
	s.Equal(1, result.PartiesByType[id.PartyTypeTrust])

	storedCompany, err := s.parties.ForType(id.PartyTypeCompany).FindByID(context.Background(), companyRec.ID)
	s.Require().NoError(err)
	s.Equal(party.StatusApproved, storedCompany.Status)

	storedTrust, err := s.parties.ForType(id.PartyTypeTrust).FindByID(context.Background(), trustRec.ID)
	s.Require().NoError(err)
	s.Equal(party.StatusApproved, storedTrust.Status)
}

func (s *InvitationServiceSuite) TestCleanupReapsOnlyExpiredUnaccepted() {
	s.issue(s.now, "old@example.com")
	freshToken := s.issue(s.now.Add(6*24*time.Hour), "fresh@example.com")

	at := s.now.Add(invitation.Lifetime + time.Hour)
	reaped, err := s.service.Cleanup(s.ctxAt(at))
	s.Require().NoError(err)
	s.Equal(1, reaped)

	_, err = s.service.Verify(s.ctxAt(at), "fresh@example.com", freshToken)
	s.NoError(err)
}

func TestVerifyThrottleBlocksAfterRepeatedFailures(t *testing.T) {
	ctrl := gomock.NewController(t)

	invitations := invitation.NewInMemoryStores()
	parties := party.NewInMemoryStores()
	accounts := account.NewInMemory()

	throttle := mocks.NewMockVerifyThrottle(ctrl)
	auditor := mocks.NewMockAuditPublisher(ctrl)
	svc := invitation.New(invitations, parties, accounts, tx.NopRunner{},
		invitation.WithThrottle(throttle),
		invitation.WithAuditPublisher(auditor),
	)

	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	throttle.EXPECT().Allow(gomock.Any(), "pat@example.com").Return(true, nil)
	throttle.EXPECT().RecordFailure(gomock.Any(), "pat@example.com").Return(nil)
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.Verify(ctx, "pat@example.com", "bogus")
	if err == nil || !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	throttle.EXPECT().Allow(gomock.Any(), "pat@example.com").Return(false, nil)

	_, err = svc.Verify(ctx, "pat@example.com", "bogus")
	if err == nil || !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("expected throttled unauthorized, got %v", err)
	}
}
