package shared

// Role is the coarse permission level handed to the core by the auth layer
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRestricted Role = "restricted"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleRestricted
}

// Actor identifies the authenticated caller of a mutating operation.
// The core trusts it as given and does not re-authenticate.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAdmin returns ErrForbidden unless the actor is an admin
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return NewForbiddenError("This action requires the admin role")
	}
	return nil
}

// SystemActor is used for internal calls that are not driven by a user
var SystemActor = Actor{ID: "system", Role: RoleAdmin}
