package models

// Role is the authorization level of a user account.
type Role string

const (
	// RoleUser is the default role of every new and every directory-mirrored account.
	RoleUser Role = "user"
	// RoleAdmin may read statistics and administrative views.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin passes every role check.
	RoleSuperAdmin Role = "superadmin"
)

// Roles lists the valid roles in ascending order of privilege.
var Roles = []Role{RoleUser, RoleAdmin, RoleSuperAdmin} //nolint:gochecknoglobals

// Level returns the position of r in the ordering user < admin < superadmin,
// or -1 for an unknown role.
func (r Role) Level() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}

	return -1
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	return r.Level() >= 0
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank below everything.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.Level() >= other.Level()
}
