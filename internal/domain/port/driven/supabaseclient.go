// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/complykit/supascope/internal/domain/model"
)

// SupabaseClient defines the driven port for the Supabase management API.
// Implementations carry the customer's bearer token; one client serves one
// credential. Returned entities have remote fields populated only — stable
// identifiers and customer ownership are assigned during reconciliation.
type SupabaseClient interface {
	// FetchProjects lists the organization's projects including per-project
	// PITR status (one backup-status lookup per project).
	FetchProjects(ctx context.Context) ([]model.Project, error)

	// FetchUsers lists auth users across the given projects, one query per
	// project, with MFAEnabled derived from the registered factor count.
	FetchUsers(ctx context.Context, projects []model.Project) ([]model.User, error)

	// FetchTables lists public-schema tables across the given projects with
	// their row-security flag.
	FetchTables(ctx context.Context, projects []model.Project) ([]model.Table, error)
}

// SupabaseClientFactory mints a SupabaseClient for a decrypted access token.
// Injected into the application layer so tests can substitute doubles.
type SupabaseClientFactory func(token string) SupabaseClient
