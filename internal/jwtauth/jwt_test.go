package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

func newTestService() *Service {
	return New("test-signing-key", "ledgerdesk", "ledgerdesk-api")
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()
	userID := id.NewUserID()

	token, err := svc.GenerateAccessToken(userID, "pat@example.com", false, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "pat@example.com", claims.Email)
	assert.False(t, claims.Admin)

	parsed, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestAdminClaimRoundTrips(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(id.NewUserID(), "ops@example.com", true, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(id.NewUserID(), "pat@example.com", false, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenSignedWithDifferentKeyRejected(t *testing.T) {
	token, err := New("other-key", "ledgerdesk", "ledgerdesk-api").
		GenerateAccessToken(id.NewUserID(), "pat@example.com", false, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
