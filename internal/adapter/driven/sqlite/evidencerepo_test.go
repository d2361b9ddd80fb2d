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

func sampleBatch(customerID string) []model.Evidence {
	return []model.Evidence{
		{
			CustomerID: customerID,
			CheckType:  model.CheckProjectPITREnabled,
			Snapshot: model.Snapshot{
				Info:   "Total Projects: 1 | Projects with PITR enabled: 1",
				Header: []model.Column{{Key: "name", Label: "Name"}, {Key: "pitr_enabled", Label: "PITR Enabled"}},
				Body:   []map[string]any{{"name": "alpha", "pitr_enabled": true}},
			},
		},
		{
			CustomerID: customerID,
			CheckType:  model.CheckUserMFAEnabled,
			Snapshot: model.Snapshot{
				Info: "Total Users: 0 | Users with MFA enabled: 0",
				Body: []map[string]any{},
			},
		},
		{
			CustomerID: customerID,
			CheckType:  model.CheckTableRLSEnabled,
			Snapshot: model.Snapshot{
				Info: "Total Tables: 0 | Tables with RLS enabled: 0",
				Body: []map[string]any{},
			},
		},
	}
}

func TestEvidenceRepo_AppendBatchSharesTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))

	var ts []time.Time
	for _, ct := range model.AllCheckTypes() {
		list, err := repo.ListTimestamps(ctx, "customer-1", ct)
		require.NoError(t, err)
		require.Len(t, list, 1)
		ts = append(ts, list[0])
	}
	assert.True(t, ts[0].Equal(ts[1]))
	assert.True(t, ts[1].Equal(ts[2]))
}

func TestEvidenceRepo_TimestampsSortedAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	repo.now = func() time.Time { return clock }

	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		clock = base.Add(offset)
		require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))
	}

	timestamps, err := repo.ListTimestamps(ctx, "customer-1", model.CheckProjectPITREnabled)
	require.NoError(t, err)
	require.Len(t, timestamps, 3)
	assert.True(t, timestamps[0].Equal(base))
	assert.True(t, timestamps[1].Equal(base.Add(time.Hour)))
	assert.True(t, timestamps[2].Equal(base.Add(2*time.Hour)))
}

func TestEvidenceRepo_SameSecondCapturesStayOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	// Two captures within one second where the earlier fractional part is a
	// textual prefix of the later one. A trimmed-zeros representation would
	// order these descending.
	first := time.Date(2026, 3, 1, 10, 0, 0, 123000000, time.UTC)
	second := time.Date(2026, 3, 1, 10, 0, 0, 123400000, time.UTC)

	clock := first
	repo.now = func() time.Time { return clock }
	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))
	clock = second
	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))

	timestamps, err := repo.ListTimestamps(ctx, "customer-1", model.CheckProjectPITREnabled)
	require.NoError(t, err)
	require.Len(t, timestamps, 2)
	require.True(t, timestamps[0].Before(timestamps[1]))
	assert.True(t, timestamps[0].Equal(first))
	assert.True(t, timestamps[1].Equal(second))
}

func TestEvidenceRepo_GetSnapshotRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))

	timestamps, err := repo.ListTimestamps(ctx, "customer-1", model.CheckProjectPITREnabled)
	require.NoError(t, err)
	require.Len(t, timestamps, 1)

	snapshot, err := repo.GetSnapshot(ctx, "customer-1", model.CheckProjectPITREnabled, timestamps[0])
	require.NoError(t, err)
	assert.Equal(t, "Total Projects: 1 | Projects with PITR enabled: 1", snapshot.Info)
	require.Len(t, snapshot.Header, 2)
	assert.Equal(t, "name", snapshot.Header[0].Key)
	require.Len(t, snapshot.Body, 1)
	assert.Equal(t, "alpha", snapshot.Body[0]["name"])
	assert.Equal(t, true, snapshot.Body[0]["pitr_enabled"])
}

func TestEvidenceRepo_GetSnapshotUnknownTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))

	_, err := repo.GetSnapshot(ctx, "customer-1", model.CheckProjectPITREnabled, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, driven.ErrNoEvidence)
}

func TestEvidenceRepo_CustomerIsolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, sampleBatch("customer-1")))

	timestamps, err := repo.ListTimestamps(ctx, "customer-2", model.CheckProjectPITREnabled)
	require.NoError(t, err)
	assert.Empty(t, timestamps)
}

func TestEvidenceRepo_AppendEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvidenceRepo(db)

	require.NoError(t, repo.AppendBatch(context.Background(), nil))
}
