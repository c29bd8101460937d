package models

// Role is the account kind carried in tokens and used by the authorization gate.
type Role string

const (
	RoleUser      Role = "user"
	RoleEnte      Role = "ente"
	RoleOperatore Role = "operatore"
	RoleAdmin     Role = "admin"
)

// AccountLookupOrder is the fixed order in which the account tables are probed
// when resolving an email or an id.
var AccountLookupOrder = []Role{RoleUser, RoleEnte, RoleOperatore, RoleAdmin}

// ParseRole returns the role for s and whether it is a known kind.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r is one of the four account kinds.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEnte, RoleOperatore, RoleAdmin:
		return true
	}
	return false
}

// IsModerator reports whether r may moderate proposals and comments.
func (r Role) IsModerator() bool {
	return r == RoleOperatore || r == RoleAdmin
}

// SelfRegistrable reports whether accounts of this kind can be created via public signup.
func (r Role) SelfRegistrable() bool {
	return r == RoleUser || r == RoleEnte
}

// AccountTable returns the table that stores accounts of kind r.
func AccountTable(r Role) string {
	switch r {
	case RoleUser:
		return "utenti"
	case RoleEnte:
		return "enti"
	case RoleOperatore:
		return "operatori"
	case RoleAdmin:
		return "admins"
	}
	return ""
}
