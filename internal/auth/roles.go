package auth

// Role is a case membership role. Roles are totally ordered:
// viewer < editor < owner.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 0
	case RoleEditor:
		return 1
	case RoleOwner:
		return 2
	}
	return -1
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool { return r.rank() >= 0 }

// AtLeast is the single comparison the access gate performs.
func (r Role) AtLeast(min Role) bool { return r.rank() >= min.rank() }
