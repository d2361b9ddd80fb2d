package model

import "time"

// Snapshot is an immutable point-in-time capture of entity rows for one check
// type: a human-readable summary, an ordered header, and the persisted rows
// verbatim at capture time.
type Snapshot struct {
	Info   string           `json:"info"`
	Header []Column         `json:"header"`
	Body   []map[string]any `json:"body"`
}

// Evidence is one append-only audit record. Once written it is never updated;
// refreshing live data must not alter historical evidence.
type Evidence struct {
	ID         int64
	CustomerID string
	CheckType  CheckType
	Snapshot   Snapshot
	CreatedAt  time.Time
}
