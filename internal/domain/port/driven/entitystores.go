package driven

import (
	"context"

	"github.com/complykit/supascope/internal/domain/model"
)

// ProjectStore defines the driven port for the reconciled project mirror.
// ApplyDelta performs the upserts and deletions of one reconcile cycle in a
// single transaction; upserts are addressed by stable identifier.
type ProjectStore interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.Project, error)
	ApplyDelta(ctx context.Context, upserts []model.Project, deleteIDs []string) error
	DeleteByCustomer(ctx context.Context, customerID string) error
}

// UserStore defines the driven port for the reconciled user mirror.
type UserStore interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.User, error)
	ApplyDelta(ctx context.Context, upserts []model.User, deleteIDs []string) error
	DeleteByCustomer(ctx context.Context, customerID string) error
}

// TableStore defines the driven port for the reconciled table mirror.
type TableStore interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.Table, error)
	ApplyDelta(ctx context.Context, upserts []model.Table, deleteIDs []string) error
	DeleteByCustomer(ctx context.Context, customerID string) error
}
