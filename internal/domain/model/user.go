package model

// User is a reconciled mirror of one auth user within a project. Remote
// identity is scoped per project: the same RemoteID may legitimately appear
// under different projects.
type User struct {
	ID          string
	CustomerID  string
	RemoteID    string
	Email       string
	Phone       string
	MFAEnabled  bool
	ProjectName string
}

// SameIdentity reports whether two users refer to the same remote user
// within the same project.
func (u User) SameIdentity(other User) bool {
	return u.RemoteID == other.RemoteID && u.ProjectName == other.ProjectName
}
