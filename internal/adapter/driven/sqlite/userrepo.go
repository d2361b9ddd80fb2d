package sqlite

import (
	"context"
	"fmt"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// ListByCustomer returns all mirrored users for the customer, ordered by
// project then email.
func (r *UserRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.User, error) {
	const query = `
		SELECT id, customer_id, remote_id, email, phone, mfa_enabled, project_name
		FROM users
		WHERE customer_id = ?
		ORDER BY project_name, email
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list users for customer %q: %w", customerID, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var mfa int
		if err := rows.Scan(&u.ID, &u.CustomerID, &u.RemoteID, &u.Email, &u.Phone, &mfa, &u.ProjectName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.MFAEnabled = mfa != 0
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// ApplyDelta upserts and deletes user rows in a single transaction.
func (r *UserRepo) ApplyDelta(ctx context.Context, upserts []model.User, deleteIDs []string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const upsertQuery = `
		INSERT INTO users (id, customer_id, remote_id, email, phone, mfa_enabled, project_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			email = excluded.email,
			phone = excluded.phone,
			mfa_enabled = excluded.mfa_enabled,
			project_name = excluded.project_name
	`
	for _, u := range upserts {
		mfa := 0
		if u.MFAEnabled {
			mfa = 1
		}
		if _, err := tx.ExecContext(ctx, upsertQuery, u.ID, u.CustomerID, u.RemoteID, u.Email, u.Phone, mfa, u.ProjectName); err != nil {
			return fmt.Errorf("upsert user %q in project %q: %w", u.RemoteID, u.ProjectName, err)
		}
	}

	const deleteQuery = `DELETE FROM users WHERE id = ?`
	for _, id := range deleteIDs {
		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("delete user %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user delta: %w", err)
	}

	return nil
}

// DeleteByCustomer removes every mirrored user for the customer.
func (r *UserRepo) DeleteByCustomer(ctx context.Context, customerID string) error {
	const query = `DELETE FROM users WHERE customer_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("delete users for customer %q: %w", customerID, err)
	}
	return nil
}
