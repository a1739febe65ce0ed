package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, access, refresh, err := env.services.Auth.Register(ctx, "Sunita", "sunita@example.com", "s3cret-pass", types.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, types.RoleClient, user.Role)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	// The stored password is hashed.
	assert.NotEqual(t, "s3cret-pass", user.Password)

	loggedIn, _, _, err := env.services.Auth.Login(ctx, "sunita@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, _, err = env.services.Auth.Login(ctx, "sunita@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, _, _, err := env.services.Auth.Register(ctx, "Raj", "raj@example.com", "s3cret-pass", types.RoleContributor)
	require.NoError(t, err)

	_, _, _, err = env.services.Auth.Register(ctx, "Raj Again", "raj@example.com", "other-pass", types.RoleContributor)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	env := newTestEnv()

	_, _, _, err := env.services.Auth.Register(context.Background(), "Mallory", "mallory@example.com", "s3cret-pass", types.RoleAdmin)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTokenRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, access, _, err := env.services.Auth.Register(ctx, "Mina", "mina@example.com", "s3cret-pass", types.RoleContributor)
	require.NoError(t, err)

	token, err := env.services.Auth.ValidateToken(access)
	require.NoError(t, err)

	userID, role, err := env.services.Auth.GetClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, types.RoleContributor, role)
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, _, refresh, err := env.services.Auth.Register(ctx, "Mina", "mina@example.com", "s3cret-pass", types.RoleContributor)
	require.NoError(t, err)

	access2, refresh2, err := env.services.Auth.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEqual(t, refresh, refresh2)

	// The old refresh token is single-use.
	_, _, err = env.services.Auth.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, _, refresh, err := env.services.Auth.Register(ctx, "Mina", "mina@example.com", "s3cret-pass", types.RoleContributor)
	require.NoError(t, err)

	require.NoError(t, env.services.Auth.Logout(ctx, refresh))

	_, _, err = env.services.Auth.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
