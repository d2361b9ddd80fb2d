package driven

import (
	"context"
	"errors"
)

// ErrUnknownCredential indicates the presented API credential does not map
// to any customer.
var ErrUnknownCredential = errors.New("unknown API credential")

// CustomerResolver resolves an opaque caller credential to a customer ID.
// Identity issuance itself is an external concern; the core only needs the
// mapping. Returns ErrUnknownCredential for credentials it does not recognize.
type CustomerResolver interface {
	Resolve(ctx context.Context, credential string) (customerID string, err error)
}
