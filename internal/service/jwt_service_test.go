package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/config"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
)

func newJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(&config.JWTConfig{
		SecretKey:     strings.Repeat("s", 32),
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}, quietLogger())
	require.NoError(t, err)
	return svc
}

func testUser() *models.User {
	return &models.User{
		ID:          "user-1",
		PhoneNumber: "09123456789",
		Role:        models.DefaultUserRole,
	}
}

func TestNewJWTServiceRejectsShortKey(t *testing.T) {
	_, err := NewJWTService(&config.JWTConfig{SecretKey: "short"}, quietLogger())
	assert.Error(t, err)
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newJWTService(t)

	pair, familyID, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, familyID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := svc.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "09123456789", claims.Phone)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.DefaultUserRole, claims.Role)
	assert.Equal(t, "access", claims.Type)

	refreshClaims, err := svc.VerifyToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.Type)
	assert.NotEqual(t, claims.JTI, refreshClaims.JTI)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newJWTService(t)

	_, err := svc.VerifyToken("not-a-token")
	assert.Error(t, err)
}

func TestRefreshTokensRejectsAccessToken(t *testing.T) {
	svc := newJWTService(t)

	pair, _, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, _, err = svc.RefreshTokens(pair.AccessToken, "")
	assert.Error(t, err)
}

func TestRefreshTokensKeepsFamilyAndClaims(t *testing.T) {
	svc := newJWTService(t)

	pair, familyID, err := svc.GenerateTokenPair(testUser())
	require.NoError(t, err)

	newPair, newFamilyID, err := svc.RefreshTokens(pair.RefreshToken, familyID)
	require.NoError(t, err)
	assert.Equal(t, familyID, newFamilyID)

	claims, err := svc.VerifyToken(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "09123456789", claims.Phone)
	assert.Equal(t, "user-1", claims.UserID)
}
