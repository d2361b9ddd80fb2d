package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// IntegrationService owns the credential lifecycle and the refresh flow that
// converges the local mirrors with live Supabase state.
//
// Callers must not run concurrent refreshes for the same customer; distinct
// customers never contend since every store operation is keyed by customer.
type IntegrationService struct {
	integrations driven.IntegrationStore
	projects     driven.ProjectStore
	users        driven.UserStore
	tables       driven.TableStore
	newClient    driven.SupabaseClientFactory
}

// NewIntegrationService creates an IntegrationService with all required
// dependencies.
func NewIntegrationService(
	integrations driven.IntegrationStore,
	projects driven.ProjectStore,
	users driven.UserStore,
	tables driven.TableStore,
	newClient driven.SupabaseClientFactory,
) *IntegrationService {
	return &IntegrationService{
		integrations: integrations,
		projects:     projects,
		users:        users,
		tables:       tables,
		newClient:    newClient,
	}
}

// IsIntegrated reports whether the customer has a stored credential.
func (s *IntegrationService) IsIntegrated(ctx context.Context, customerID string) (bool, error) {
	return s.integrations.Exists(ctx, customerID)
}

// Integrate stores the customer's access token (replacing any previous one)
// and runs a full refresh against it.
func (s *IntegrationService) Integrate(ctx context.Context, customerID, rawToken string) error {
	integ := model.Integration{
		CustomerID: customerID,
		Token:      rawToken,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.integrations.Upsert(ctx, integ); err != nil {
		return err
	}
	return s.Refresh(ctx, customerID)
}

// Refresh pulls live projects, users, and tables and reconciles each mirror.
// Projects are fetched and applied first since user and table fetches are
// parameterized by the project list; users and tables then proceed
// concurrently. Any failure aborts the refresh with the mirrors of already
// completed entity types applied and the rest untouched.
func (s *IntegrationService) Refresh(ctx context.Context, customerID string) error {
	start := time.Now()

	token, err := s.integrations.GetToken(ctx, customerID)
	if err != nil {
		return err
	}
	client := s.newClient(token)

	fetchedProjects, err := client.FetchProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	if err := s.refreshProjects(ctx, customerID, fetchedProjects); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.refreshUsers(gctx, client, customerID, fetchedProjects) })
	g.Go(func() error { return s.refreshTables(gctx, client, customerID, fetchedProjects) })
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("refresh complete",
		"customer", customerID,
		"projects", len(fetchedProjects),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// Remove deletes the customer's credential and all three mirrors. Historical
// evidence is retained as a permanent audit trail.
func (s *IntegrationService) Remove(ctx context.Context, customerID string) error {
	if err := s.integrations.Delete(ctx, customerID); err != nil {
		return err
	}
	if err := s.projects.DeleteByCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := s.users.DeleteByCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := s.tables.DeleteByCustomer(ctx, customerID); err != nil {
		return err
	}

	slog.Info("integration removed", "customer", customerID)
	return nil
}

func (s *IntegrationService) refreshProjects(ctx context.Context, customerID string, fetched []model.Project) error {
	persisted, err := s.projects.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	delta := Reconcile(persisted, fetched,
		model.Project.SameIdentity,
		func(f model.Project, matched *model.Project) model.Project {
			f.ID = adoptID(matched, func(p model.Project) string { return p.ID })
			f.CustomerID = customerID
			return f
		},
		func(p model.Project) string { return p.ID },
	)

	if err := s.projects.ApplyDelta(ctx, delta.Upserts, delta.DeleteIDs); err != nil {
		return fmt.Errorf("apply project delta: %w", err)
	}
	return nil
}

func (s *IntegrationService) refreshUsers(ctx context.Context, client driven.SupabaseClient, customerID string, projects []model.Project) error {
	fetched, err := client.FetchUsers(ctx, projects)
	if err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}

	persisted, err := s.users.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	delta := Reconcile(persisted, fetched,
		model.User.SameIdentity,
		func(f model.User, matched *model.User) model.User {
			f.ID = adoptID(matched, func(u model.User) string { return u.ID })
			f.CustomerID = customerID
			return f
		},
		func(u model.User) string { return u.ID },
	)

	if err := s.users.ApplyDelta(ctx, delta.Upserts, delta.DeleteIDs); err != nil {
		return fmt.Errorf("apply user delta: %w", err)
	}
	return nil
}

func (s *IntegrationService) refreshTables(ctx context.Context, client driven.SupabaseClient, customerID string, projects []model.Project) error {
	fetched, err := client.FetchTables(ctx, projects)
	if err != nil {
		return fmt.Errorf("fetch tables: %w", err)
	}

	persisted, err := s.tables.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	delta := Reconcile(persisted, fetched,
		model.Table.SameIdentity,
		func(f model.Table, matched *model.Table) model.Table {
			f.ID = adoptID(matched, func(t model.Table) string { return t.ID })
			f.CustomerID = customerID
			return f
		},
		func(t model.Table) string { return t.ID },
	)

	if err := s.tables.ApplyDelta(ctx, delta.Upserts, delta.DeleteIDs); err != nil {
		return fmt.Errorf("apply table delta: %w", err)
	}
	return nil
}

// adoptID carries over the matched row's stable identifier, or assigns a
// fresh one for rows seen for the first time.
func adoptID[E any](matched *E, idOf func(E) string) string {
	if matched != nil {
		return idOf(*matched)
	}
	return uuid.NewString()
}
