package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

func TestIntegration_AddToBlacklist_And_IsBlacklisted_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	userID := seedUser(t, st, "bl@example.com", true)
	rec := seedToken(t, st, userID, models.TokenTypeAccess, time.Now().UTC(), time.Hour)

	blacklisted, err := st.IsBlacklisted(ctx, rec.JTI)
	require.NoError(t, err)
	require.False(t, blacklisted)

	require.NoError(t, st.AddToBlacklist(ctx, rec.ID))

	blacklisted, err = st.IsBlacklisted(ctx, rec.JTI)
	require.NoError(t, err)
	require.True(t, blacklisted)
}

func TestIntegration_AddToBlacklist_Twice_AlreadyExists(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	userID := seedUser(t, st, "bl-dup@example.com", true)
	rec := seedToken(t, st, userID, models.TokenTypeRefresh, time.Now().UTC(), time.Hour)

	require.NoError(t, st.AddToBlacklist(ctx, rec.ID))

	// Уникальность token_id — CAS-защёлка конкурентной ротации.
	err := st.AddToBlacklist(ctx, rec.ID)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_AddToBlacklist_UnknownToken_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	err := st.AddToBlacklist(context.Background(), 424242)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_IsBlacklisted_UnknownJTI_False(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	blacklisted, err := st.IsBlacklisted(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, blacklisted)
}
