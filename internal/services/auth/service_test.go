package auth_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/index"
	"github.com/driveline/driveline/internal/models"
	"github.com/driveline/driveline/internal/services/auth"
)

func newAuthService(t *testing.T, ttl time.Duration) *auth.Service {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	return auth.NewService(index.NewMemoryStore(1<<20), "test-secret", ttl, logger)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, time.Hour)

	user, err := svc.Register(ctx, "alice", "hunter2", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	t.Run("registering again returns the existing account", func(t *testing.T) {
		again, err := svc.Register(ctx, "alice", "different", models.RoleGuest)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, models.RoleAdmin, again.Role)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, time.Hour)

	_, err := svc.Register(ctx, "alice", "hunter2", models.RoleAdmin)
	require.NoError(t, err)

	t.Run("valid credentials yield a verifiable token", func(t *testing.T) {
		token, user, err := svc.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		identity, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)
		assert.Equal(t, "alice", identity.Username)
		assert.Equal(t, models.RoleAdmin, identity.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bob", "hunter2")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("expired token", func(t *testing.T) {
		svc := newAuthService(t, -time.Minute)
		_, err := svc.Register(ctx, "alice", "hunter2", models.RoleAdmin)
		require.NoError(t, err)

		token, _, err := svc.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newAuthService(t, time.Hour)
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		issuer := newAuthService(t, time.Hour)
		verifier := auth.NewService(index.NewMemoryStore(1<<20), "other-secret", time.Hour,
			events.NewTestLogger(&bytes.Buffer{}))

		_, err := issuer.Register(ctx, "alice", "hunter2", models.RoleAdmin)
		require.NoError(t, err)
		token, _, err := issuer.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}
