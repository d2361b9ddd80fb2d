package model

import "time"

// Integration holds a customer's Supabase management API credential.
// Token is plaintext at the domain boundary; the persistence adapter is
// responsible for encryption at rest.
type Integration struct {
	CustomerID string
	Token      string
	UpdatedAt  time.Time
}
