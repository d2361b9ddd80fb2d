package driven

import (
	"context"
	"errors"

	"github.com/complykit/supascope/internal/domain/model"
)

// Sentinel errors shared across store implementations.
var (
	// ErrEncryptionKeyNotSet is returned by IntegrationStore operations when
	// SUPASCOPE_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SUPASCOPE_SECRET_KEY")

	// ErrNotIntegrated indicates the customer has no stored credential.
	ErrNotIntegrated = errors.New("supabase integration not configured")

	// ErrNoEvidence indicates no evidence has been collected for the
	// requested customer and check type.
	ErrNoEvidence = errors.New("no evidence collected")
)

// IntegrationStore defines the driven port for credential persistence, one
// row per customer. The adapter encrypts tokens at rest; this interface
// operates on plaintext values at the domain boundary.
type IntegrationStore interface {
	// Upsert stores or replaces the customer's credential.
	Upsert(ctx context.Context, integ model.Integration) error

	// GetToken retrieves the customer's plaintext credential.
	// Returns ErrNotIntegrated if no credential exists.
	GetToken(ctx context.Context, customerID string) (string, error)

	// Exists reports whether a credential is stored for the customer.
	Exists(ctx context.Context, customerID string) (bool, error)

	// Delete removes the customer's credential. Deleting a missing
	// credential is a no-op.
	Delete(ctx context.Context, customerID string) error
}
