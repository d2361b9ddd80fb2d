package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/complykit/supascope/internal/domain/model"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EvidenceStore = (*EvidenceRepo)(nil)

// timeFormat is the canonical created_at representation: UTC with a
// fixed-width nine-digit fractional part, so the column's text order equals
// chronological order and exact-match lookups are reliable. RFC3339Nano is
// unsuitable here because it trims trailing fractional zeros, which breaks
// lexicographic ordering within a second.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// EvidenceRepo is the SQLite implementation of the EvidenceStore port.
// Snapshots are serialized as JSON in the TEXT column; rows are append-only.
type EvidenceRepo struct {
	db *DB

	// now is swappable in tests.
	now func() time.Time
}

// NewEvidenceRepo creates a new EvidenceRepo backed by the given DB.
func NewEvidenceRepo(db *DB) *EvidenceRepo {
	return &EvidenceRepo{db: db, now: time.Now}
}

// AppendBatch inserts all evidence rows in a single transaction, sharing one
// capture timestamp. Either every row is persisted or none are.
func (r *EvidenceRepo) AppendBatch(ctx context.Context, evidences []model.Evidence) error {
	if len(evidences) == 0 {
		return nil
	}

	createdAt := r.now().UTC()

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const query = `
		INSERT INTO evidences (customer_id, check_type, snapshot, created_at)
		VALUES (?, ?, ?, ?)
	`
	for _, ev := range evidences {
		snapshotJSON, err := json.Marshal(ev.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", ev.CheckType, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			ev.CustomerID, string(ev.CheckType), string(snapshotJSON), createdAt.Format(timeFormat),
		); err != nil {
			return fmt.Errorf("insert evidence %s for customer %q: %w", ev.CheckType, ev.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evidence batch: %w", err)
	}

	return nil
}

// ListTimestamps returns the capture timestamps for the customer and check
// type, sorted ascending by created_at.
func (r *EvidenceRepo) ListTimestamps(ctx context.Context, customerID string, checkType model.CheckType) ([]time.Time, error) {
	const query = `
		SELECT created_at
		FROM evidences
		WHERE customer_id = ? AND check_type = ?
		ORDER BY created_at
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, customerID, string(checkType))
	if err != nil {
		return nil, fmt.Errorf("list evidence timestamps for customer %q: %w", customerID, err)
	}
	defer rows.Close()

	timestamps := []time.Time{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan evidence timestamp: %w", err)
		}
		ts, err := time.Parse(timeFormat, raw)
		if err != nil {
			return nil, fmt.Errorf("parse evidence timestamp %q: %w", raw, err)
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence timestamps: %w", err)
	}

	return timestamps, nil
}

// GetSnapshot returns the snapshot captured at exactly createdAt.
func (r *EvidenceRepo) GetSnapshot(ctx context.Context, customerID string, checkType model.CheckType, createdAt time.Time) (model.Snapshot, error) {
	const query = `
		SELECT snapshot
		FROM evidences
		WHERE customer_id = ? AND check_type = ? AND created_at = ?
	`

	var raw string
	err := r.db.Reader.QueryRowContext(ctx, query,
		customerID, string(checkType), createdAt.UTC().Format(timeFormat),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, driven.ErrNoEvidence
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("get evidence snapshot for customer %q: %w", customerID, err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return model.Snapshot{}, fmt.Errorf("unmarshal evidence snapshot: %w", err)
	}

	return snapshot, nil
}
