package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/supascope/internal/application"
	"github.com/complykit/supascope/internal/domain/model"
)

// reconcileProjects runs the reconciler with the adoption rule the refresh
// flow uses: matched rows keep their stable identifier, new rows get newID.
func reconcileProjects(persisted, fetched []model.Project, newID string) application.Delta[model.Project] {
	return application.Reconcile(persisted, fetched,
		model.Project.SameIdentity,
		func(f model.Project, matched *model.Project) model.Project {
			if matched != nil {
				f.ID = matched.ID
			} else {
				f.ID = newID
			}
			f.CustomerID = "customer-1"
			return f
		},
		func(p model.Project) string { return p.ID },
	)
}

func TestReconcile_MatchedRowKeepsIdentifier(t *testing.T) {
	persisted := []model.Project{{ID: "A", RemoteID: "1", Name: "p1", PITREnabled: false}}
	fetched := []model.Project{{RemoteID: "1", Name: "p1", PITREnabled: true}}

	delta := reconcileProjects(persisted, fetched, "unused")

	require.Len(t, delta.Upserts, 1)
	assert.Equal(t, "A", delta.Upserts[0].ID)
	assert.Equal(t, "customer-1", delta.Upserts[0].CustomerID)
	assert.True(t, delta.Upserts[0].PITREnabled)
	assert.Empty(t, delta.DeleteIDs)
}

func TestReconcile_EmptyFetchedTearsDown(t *testing.T) {
	persisted := []model.Project{{ID: "B", RemoteID: "2"}}

	delta := reconcileProjects(persisted, nil, "unused")

	assert.Empty(t, delta.Upserts)
	assert.Equal(t, []string{"B"}, delta.DeleteIDs)
}

func TestReconcile_EmptyPersistedInsertsAll(t *testing.T) {
	fetched := []model.Project{
		{RemoteID: "1", Name: "p1"},
		{RemoteID: "2", Name: "p2"},
	}

	delta := reconcileProjects(nil, fetched, "fresh")

	require.Len(t, delta.Upserts, 2)
	for _, p := range delta.Upserts {
		assert.Equal(t, "fresh", p.ID)
		assert.Equal(t, "customer-1", p.CustomerID)
	}
	assert.Empty(t, delta.DeleteIDs)
}

func TestReconcile_Completeness(t *testing.T) {
	persisted := []model.Project{
		{ID: "A", RemoteID: "1", Name: "p1"},
		{ID: "B", RemoteID: "2", Name: "p2"},
		{ID: "C", RemoteID: "3", Name: "p3"},
	}
	fetched := []model.Project{
		{RemoteID: "2", Name: "p2-renamed"},
		{RemoteID: "4", Name: "p4"},
	}

	delta := reconcileProjects(persisted, fetched, "fresh")

	// Every fetched row appears exactly once in the upsert set.
	require.Len(t, delta.Upserts, len(fetched))
	assert.Equal(t, "B", delta.Upserts[0].ID)
	assert.Equal(t, "fresh", delta.Upserts[1].ID)

	// Every persisted row absent from fetched appears exactly once in the
	// delete set.
	assert.ElementsMatch(t, []string{"A", "C"}, delta.DeleteIDs)
}

func TestReconcile_Idempotence(t *testing.T) {
	persisted := []model.Project{{ID: "A", RemoteID: "1", Name: "p1"}}
	fetched := []model.Project{
		{RemoteID: "1", Name: "p1"},
		{RemoteID: "2", Name: "p2"},
	}

	first := reconcileProjects(persisted, fetched, "D")

	// Applying the first delta yields the persisted state for round two.
	second := reconcileProjects(first.Upserts, fetched, "unused")

	assert.Empty(t, second.DeleteIDs)
	require.Len(t, second.Upserts, len(fetched))
	assert.Equal(t, first.Upserts, second.Upserts)
}

func TestReconcile_IdentifierStableAcrossCycles(t *testing.T) {
	fetched := []model.Project{{RemoteID: "1", Name: "p1"}}

	delta := reconcileProjects(nil, fetched, "A")
	for range 5 {
		delta = reconcileProjects(delta.Upserts, fetched, "should-not-be-used")
	}

	require.Len(t, delta.Upserts, 1)
	assert.Equal(t, "A", delta.Upserts[0].ID)
}

func TestReconcile_UserIdentityScopedPerProject(t *testing.T) {
	persisted := []model.User{
		{ID: "A", RemoteID: "u-1", ProjectName: "alpha"},
	}
	// Same remote ID under a different project is a different entity.
	fetched := []model.User{
		{RemoteID: "u-1", ProjectName: "alpha"},
		{RemoteID: "u-1", ProjectName: "beta"},
	}

	delta := application.Reconcile(persisted, fetched,
		model.User.SameIdentity,
		func(f model.User, matched *model.User) model.User {
			if matched != nil {
				f.ID = matched.ID
			} else {
				f.ID = "B"
			}
			return f
		},
		func(u model.User) string { return u.ID },
	)

	require.Len(t, delta.Upserts, 2)
	assert.Equal(t, "A", delta.Upserts[0].ID)
	assert.Equal(t, "B", delta.Upserts[1].ID)
	assert.Empty(t, delta.DeleteIDs)
}
