package model

// Project is a reconciled mirror of one Supabase project. RemoteID is the
// provider-assigned project ref; ID is the locally assigned stable identifier
// that survives reconcile cycles.
type Project struct {
	ID          string
	CustomerID  string
	RemoteID    string
	Name        string
	PITREnabled bool
}

// SameIdentity reports whether two projects refer to the same remote project.
func (p Project) SameIdentity(other Project) bool {
	return p.RemoteID == other.RemoteID
}
