// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the kind of actor calling the service.
type Role string

const (
	// RoleUser is a resident reporting and confirming pickups.
	RoleUser Role = "user"
	// RoleIncharger is a supervisor managing labour and streets.
	RoleIncharger Role = "incharger"
	// RoleLabour is a field worker collecting waste.
	RoleLabour Role = "labour"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleIncharger, RoleLabour:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// RolesFromStrings converts []string to Roles, filtering out invalid role strings.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(s)
		if role.IsValid() {
			result = append(result, role)
		}
	}

	return result
}

// Actor is the authenticated caller of an operation. ID may be an internal
// id or a business id, whichever the identity service put in the token.
type Actor struct {
	ID    string
	Roles Roles
}

// Is reports whether the actor holds role.
func (a Actor) Is(role Role) bool {
	return a.Roles.Contains(role)
}
