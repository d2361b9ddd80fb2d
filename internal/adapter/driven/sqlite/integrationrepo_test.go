package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

func storedIntegration(customerID, token string) model.Integration {
	return model.Integration{
		CustomerID: customerID,
		Token:      token,
		UpdatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestIntegrationRepo_UpsertAndGetToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, testKey)
	ctx := context.Background()

	err := repo.Upsert(ctx, storedIntegration("customer-1", "sbp_secret_token"))
	require.NoError(t, err)

	token, err := repo.GetToken(ctx, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "sbp_secret_token", token)

	var updatedAt string
	err = db.Reader.QueryRowContext(ctx, `SELECT updated_at FROM integrations WHERE customer_id = ?`, "customer-1").Scan(&updatedAt)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T12:00:00Z", updatedAt)
}

func TestIntegrationRepo_GetTokenNotIntegrated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, testKey)

	_, err := repo.GetToken(context.Background(), "customer-1")
	assert.ErrorIs(t, err, driven.ErrNotIntegrated)
}

func TestIntegrationRepo_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, storedIntegration("customer-1", "old-token")))
	require.NoError(t, repo.Upsert(ctx, storedIntegration("customer-1", "new-token")))

	token, err := repo.GetToken(ctx, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
}

func TestIntegrationRepo_TokenEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, storedIntegration("customer-1", "sbp_secret_token")))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT token FROM integrations WHERE customer_id = ?`, "customer-1").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "sbp_secret_token")
}

func TestIntegrationRepo_ExistsAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, testKey)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "customer-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Upsert(ctx, storedIntegration("customer-1", "token")))

	exists, err = repo.Exists(ctx, "customer-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, "customer-1"))

	exists, err = repo.Exists(ctx, "customer-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent credential is a no-op.
	require.NoError(t, repo.Delete(ctx, "customer-1"))
}

func TestIntegrationRepo_NoEncryptionKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db, nil)
	ctx := context.Background()

	err := repo.Upsert(ctx, storedIntegration("customer-1", "token"))
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.GetToken(ctx, "customer-1")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}
