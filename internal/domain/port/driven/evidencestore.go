package driven

import (
	"context"
	"time"

	"github.com/complykit/supascope/internal/domain/model"
)

// EvidenceStore defines the driven port for the append-only evidence log.
// Evidence rows are immutable: there is no update or delete operation.
type EvidenceStore interface {
	// AppendBatch inserts all evidence rows in a single transaction.
	// Either every row is persisted or none are.
	AppendBatch(ctx context.Context, evidences []model.Evidence) error

	// ListTimestamps returns the capture timestamps for the customer and
	// check type, sorted ascending by created_at.
	ListTimestamps(ctx context.Context, customerID string, checkType model.CheckType) ([]time.Time, error)

	// GetSnapshot returns the snapshot captured at exactly createdAt.
	// Returns ErrNoEvidence if no such row exists.
	GetSnapshot(ctx context.Context, customerID string, checkType model.CheckType, createdAt time.Time) (model.Snapshot, error)
}
