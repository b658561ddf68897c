package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
)

func newTestAuth(t *testing.T) (*AuthService, *repository.Store) {
	t.Helper()
	store, err := repository.NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewAuthService(store, newTestTokens(time.Minute), zap.NewNop()), store
}

func seedUser(t *testing.T, store *repository.Store, username, passwordHash string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	svc, store := newTestAuth(t)
	ctx := context.Background()
	seedUser(t, store, "vinz", "hash123")

	user, pair, err := svc.Login(ctx, "vinz", "hash123", ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "vinz", user.Username)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(ctx, "vinz", "wrong-hash", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "hash123", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotation(t *testing.T) {
	svc, store := newTestAuth(t)
	ctx := context.Background()
	seedUser(t, store, "vinz", "hash123")

	_, pair, err := svc.Login(ctx, "vinz", "hash123", ClientInfo{})
	require.NoError(t, err)

	user, next, err := svc.Refresh(ctx, pair.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "vinz", user.Username)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The presented token was revoked by the rotation.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The new token still works.
	_, _, err = svc.Refresh(ctx, next.RefreshToken, ClientInfo{})
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	_, _, err := svc.Refresh(context.Background(), "never-issued", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestMe(t *testing.T) {
	svc, store := newTestAuth(t)
	ctx := context.Background()
	u := seedUser(t, store, "vinz", "hash123")
	require.NoError(t, store.GrantDeveloper(ctx, u.ID, 500))
	require.NoError(t, store.GrantDeveloper(ctx, u.ID, 600))

	user, devIDs, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "vinz", user.Username)
	assert.ElementsMatch(t, []int64{500, 600}, devIDs)
}
