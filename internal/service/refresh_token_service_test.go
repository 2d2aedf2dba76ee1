package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefreshTokenFixture(t *testing.T) *RefreshTokenService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRefreshTokenService(client, quietLogger())
}

func TestRefreshTokenStoreAndGet(t *testing.T) {
	svc := newRefreshTokenFixture(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, svc.Store(ctx, "jti-1", "user-1", "09123456789", "family-1", expiresAt))

	data, err := svc.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, "09123456789", data.Phone)
	assert.Equal(t, "family-1", data.FamilyID)
	assert.False(t, data.Revoked)
}

func TestRefreshTokenGetMissing(t *testing.T) {
	svc := newRefreshTokenFixture(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRefreshTokenRevoke(t *testing.T) {
	svc := newRefreshTokenFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Store(ctx, "jti-1", "user-1", "09123456789", "family-1", time.Now().Add(time.Hour)))

	revoked, err := svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Revoke(ctx, "jti-1"))

	revoked, err = svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	data, err := svc.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, data.Revoked)
}

func TestRefreshTokenRevokeFamily(t *testing.T) {
	svc := newRefreshTokenFixture(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, svc.Store(ctx, "jti-1", "user-1", "09123456789", "family-1", expiresAt))
	require.NoError(t, svc.Store(ctx, "jti-2", "user-1", "09123456789", "family-1", expiresAt))
	require.NoError(t, svc.Store(ctx, "jti-3", "user-2", "09111111111", "family-2", expiresAt))

	require.NoError(t, svc.RevokeFamily(ctx, "family-1"))

	for jti, want := range map[string]bool{"jti-1": true, "jti-2": true, "jti-3": false} {
		revoked, err := svc.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.Equal(t, want, revoked, jti)
	}
}
