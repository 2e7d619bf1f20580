package domain

type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
	RoleAdmin     Role = "admin"
)

// Caller is an authenticated end user as resolved by the identity provider.
type Caller struct {
	UserID UserID
	Role   Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanAccess reports whether the caller may read or write a record owned by owner.
func (c Caller) CanAccess(owner UserID) bool {
	return c.IsAdmin() || c.UserID == owner
}
