package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := NewJWTService("test-secret")

	pair, err := svc.GenerateTokenPair("user-1", "+919812345678", "citizen")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "+919812345678", claims.PhoneNumber)
	assert.Equal(t, "citizen", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "rescuereach", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := NewJWTService("secret-a").GenerateTokenPair("user-1", "+919812345678", "citizen")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc := NewJWTService("test-secret")

	pair, err := svc.GenerateTokenPair("user-1", "+919812345678", "responder")
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "responder", claims.Role)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	pair, err := svc.GenerateTokenPair("user-1", "+919812345678", "citizen")
	require.NoError(t, err)

	_, err = svc.RefreshToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestExtractUserID(t *testing.T) {
	svc := NewJWTService("test-secret")

	pair, err := svc.GenerateTokenPair("user-42", "+919812345678", "citizen")
	require.NoError(t, err)

	userID, err := svc.ExtractUserID(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}
