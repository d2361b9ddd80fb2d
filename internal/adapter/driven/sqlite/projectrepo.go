package sqlite

import (
	"context"
	"fmt"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProjectStore = (*ProjectRepo)(nil)

// ProjectRepo is the SQLite implementation of the ProjectStore port.
type ProjectRepo struct {
	db *DB
}

// NewProjectRepo creates a new ProjectRepo backed by the given DB.
func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// ListByCustomer returns all mirrored projects for the customer, ordered by name.
func (r *ProjectRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Project, error) {
	const query = `
		SELECT id, customer_id, remote_id, name, pitr_enabled
		FROM projects
		WHERE customer_id = ?
		ORDER BY name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list projects for customer %q: %w", customerID, err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		var pitr int
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.RemoteID, &p.Name, &pitr); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.PITREnabled = pitr != 0
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// ApplyDelta upserts and deletes project rows in a single transaction.
// Upserts are addressed by stable identifier.
func (r *ProjectRepo) ApplyDelta(ctx context.Context, upserts []model.Project, deleteIDs []string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const upsertQuery = `
		INSERT INTO projects (id, customer_id, remote_id, name, pitr_enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			name = excluded.name,
			pitr_enabled = excluded.pitr_enabled
	`
	for _, p := range upserts {
		pitr := 0
		if p.PITREnabled {
			pitr = 1
		}
		if _, err := tx.ExecContext(ctx, upsertQuery, p.ID, p.CustomerID, p.RemoteID, p.Name, pitr); err != nil {
			return fmt.Errorf("upsert project %q: %w", p.RemoteID, err)
		}
	}

	const deleteQuery = `DELETE FROM projects WHERE id = ?`
	for _, id := range deleteIDs {
		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("delete project %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit project delta: %w", err)
	}

	return nil
}

// DeleteByCustomer removes every mirrored project for the customer.
func (r *ProjectRepo) DeleteByCustomer(ctx context.Context, customerID string) error {
	const query = `DELETE FROM projects WHERE customer_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("delete projects for customer %q: %w", customerID, err)
	}
	return nil
}
