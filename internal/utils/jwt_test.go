package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	SetJWTSecret("jwt-test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "alice", "alice@example.com", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.True(t, claims.VerifyAudience(AudienceAccess, true))
}

func TestValidateJWTRejects(t *testing.T) {
	SetJWTSecret("jwt-test-secret")
	userID := uuid.New()

	expired, err := GenerateJWT(userID, "alice", "alice@example.com", -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	refresh, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)
	_, err = ValidateJWT(refresh)
	assert.Error(t, err, "refresh tokens must not work as access tokens")

	signed, err := GenerateJWT(userID, "alice", "alice@example.com", 1)
	require.NoError(t, err)
	SetJWTSecret("another-secret")
	_, err = ValidateJWT(signed)
	assert.Error(t, err)

	_, err = ValidateJWT("garbage")
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	SetJWTSecret("jwt-test-secret")
	userID := uuid.New()

	token, err := GenerateRefreshToken(userID, 24)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	expired, err := GenerateRefreshToken(userID, -1)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(expired)
	assert.Error(t, err)

	access, err := GenerateJWT(userID, "alice", "alice@example.com", 1)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err, "access tokens must not work as refresh tokens")
}
