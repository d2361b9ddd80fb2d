package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/supascope/internal/domain/model"
)

func TestUserRepo_ApplyDeltaAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	upserts := []model.User{
		{ID: "id-a", CustomerID: "customer-1", RemoteID: "u-1", Email: "a@example.com", MFAEnabled: true, ProjectName: "alpha"},
		{ID: "id-b", CustomerID: "customer-1", RemoteID: "u-1", Email: "a@example.com", MFAEnabled: false, ProjectName: "beta"},
	}
	require.NoError(t, repo.ApplyDelta(ctx, upserts, nil))

	users, err := repo.ListByCustomer(ctx, "customer-1")
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Same remote ID under two projects is two distinct rows.
	assert.Equal(t, "alpha", users[0].ProjectName)
	assert.True(t, users[0].MFAEnabled)
	assert.Equal(t, "beta", users[1].ProjectName)
	assert.False(t, users[1].MFAEnabled)
}

func TestUserRepo_ApplyDeltaUpsertAndDeleteTogether(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.ApplyDelta(ctx, []model.User{
		{ID: "id-a", CustomerID: "customer-1", RemoteID: "u-1", Email: "a@example.com", ProjectName: "alpha"},
		{ID: "id-b", CustomerID: "customer-1", RemoteID: "u-2", Email: "b@example.com", ProjectName: "alpha"},
	}, nil))

	require.NoError(t, repo.ApplyDelta(ctx, []model.User{
		{ID: "id-a", CustomerID: "customer-1", RemoteID: "u-1", Email: "a@example.com", MFAEnabled: true, ProjectName: "alpha"},
	}, []string{"id-b"}))

	users, err := repo.ListByCustomer(ctx, "customer-1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "id-a", users[0].ID)
	assert.True(t, users[0].MFAEnabled)
}

func TestUserRepo_DeleteByCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.ApplyDelta(ctx, []model.User{
		{ID: "id-a", CustomerID: "customer-1", RemoteID: "u-1", Email: "a@example.com", ProjectName: "alpha"},
	}, nil))

	require.NoError(t, repo.DeleteByCustomer(ctx, "customer-1"))

	users, err := repo.ListByCustomer(ctx, "customer-1")
	require.NoError(t, err)
	assert.Empty(t, users)
}
