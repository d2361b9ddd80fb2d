// Package identity provides a static API-key implementation of the
// CustomerResolver port. Real identity issuance lives outside this service;
// the core only needs credential-to-customer mapping.
package identity

import (
	"context"
	"crypto/subtle"

	"github.com/complykit/supascope/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CustomerResolver = (*StaticResolver)(nil)

// StaticResolver resolves opaque API keys to customer IDs from a fixed map
// loaded at startup. Comparison is constant-time per key.
type StaticResolver struct {
	keys map[string]string
}

// NewStaticResolver creates a resolver over the given key-to-customer map.
func NewStaticResolver(keys map[string]string) *StaticResolver {
	if keys == nil {
		keys = map[string]string{}
	}
	return &StaticResolver{keys: keys}
}

// Resolve maps an API key to its customer ID, or ErrUnknownCredential.
func (r *StaticResolver) Resolve(_ context.Context, credential string) (string, error) {
	for key, customerID := range r.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(credential)) == 1 {
			return customerID, nil
		}
	}
	return "", driven.ErrUnknownCredential
}
