package auth_test

import (
	"context"
	"testing"
	"time"

	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	sessions := auth.NewSessionService(store.Sessions)

	first, err := sessions.Create(ctx, "u1", "farmer", time.Hour)
	require.NoError(t, err)
	second, err := sessions.Create(ctx, "u1", "farmer", time.Hour)
	require.NoError(t, err)
	other, err := sessions.Create(ctx, "u2", "insurer", time.Hour)
	require.NoError(t, err)

	active, err := sessions.IsActive(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, sessions.Revoke(ctx, first.ID))
	active, err = sessions.IsActive(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, active, "revoked session stays dead")

	n, err := sessions.RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "only the live session is revoked")

	active, _ = sessions.IsActive(ctx, second.ID)
	assert.False(t, active)
	active, _ = sessions.IsActive(ctx, other.ID)
	assert.True(t, active, "other users are untouched")

	active, err = sessions.IsActive(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestIssuer_Issue(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	issuer := auth.Issuer{
		Tokens:   auth.NewTokenManager("secret", time.Hour),
		Sessions: auth.NewSessionService(store.Sessions),
	}

	token, _, err := issuer.Issue(ctx, "u1", "a@b.com", "assessor")
	require.NoError(t, err)

	claims, err := issuer.Tokens.Parse(token)
	require.NoError(t, err)
	active, err := issuer.Sessions.IsActive(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, active)
}
