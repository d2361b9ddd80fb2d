package sqlite

import (
	"context"
	"fmt"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TableStore = (*TableRepo)(nil)

// TableRepo is the SQLite implementation of the TableStore port.
type TableRepo struct {
	db *DB
}

// NewTableRepo creates a new TableRepo backed by the given DB.
func NewTableRepo(db *DB) *TableRepo {
	return &TableRepo{db: db}
}

// ListByCustomer returns all mirrored tables for the customer, ordered by
// project then name.
func (r *TableRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Table, error) {
	const query = `
		SELECT id, customer_id, name, rls_enabled, project_name
		FROM tables
		WHERE customer_id = ?
		ORDER BY project_name, name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list tables for customer %q: %w", customerID, err)
	}
	defer rows.Close()

	tables := []model.Table{}
	for rows.Next() {
		var t model.Table
		var rls int
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Name, &rls, &t.ProjectName); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		t.RLSEnabled = rls != 0
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

// ApplyDelta upserts and deletes table rows in a single transaction.
func (r *TableRepo) ApplyDelta(ctx context.Context, upserts []model.Table, deleteIDs []string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const upsertQuery = `
		INSERT INTO tables (id, customer_id, name, rls_enabled, project_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rls_enabled = excluded.rls_enabled,
			project_name = excluded.project_name
	`
	for _, t := range upserts {
		rls := 0
		if t.RLSEnabled {
			rls = 1
		}
		if _, err := tx.ExecContext(ctx, upsertQuery, t.ID, t.CustomerID, t.Name, rls, t.ProjectName); err != nil {
			return fmt.Errorf("upsert table %q in project %q: %w", t.Name, t.ProjectName, err)
		}
	}

	const deleteQuery = `DELETE FROM tables WHERE id = ?`
	for _, id := range deleteIDs {
		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("delete table %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit table delta: %w", err)
	}

	return nil
}

// DeleteByCustomer removes every mirrored table for the customer.
func (r *TableRepo) DeleteByCustomer(ctx context.Context, customerID string) error {
	const query = `DELETE FROM tables WHERE customer_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("delete tables for customer %q: %w", customerID, err)
	}
	return nil
}
