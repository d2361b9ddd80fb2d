package model

// Table is a reconciled mirror of one public-schema table within a project.
type Table struct {
	ID          string
	CustomerID  string
	Name        string
	RLSEnabled  bool
	ProjectName string
}

// SameIdentity reports whether two tables refer to the same remote table
// within the same project.
func (t Table) SameIdentity(other Table) bool {
	return t.Name == other.Name && t.ProjectName == other.ProjectName
}
