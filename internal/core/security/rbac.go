// Package security provides role-based access control and feature gating.
package security

// Verb defines the action verbs checked by the RBAC gate.
type Verb string

const (
	VerbRead   Verb = "read"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
	VerbAdmin  Verb = "admin"
)

// Role defines the membership roles within an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

// rolePermissions is the static role → allowed verbs table.
// A capability check is a pure membership test against this table;
// per-resource ownership checks happen in the domain services.
var rolePermissions = map[Role]map[Verb]bool{
	RoleOwner: {
		VerbRead: true, VerbCreate: true, VerbUpdate: true, VerbDelete: true, VerbAdmin: true,
	},
	RoleAdmin: {
		VerbRead: true, VerbCreate: true, VerbUpdate: true, VerbDelete: true, VerbAdmin: true,
	},
	RoleLeader: {
		VerbRead: true, VerbCreate: true, VerbUpdate: true,
	},
	RoleMember: {
		VerbRead: true,
	},
}

// Can reports whether a role is allowed to perform a verb.
// Unknown roles have no permissions.
func Can(role Role, verb Verb) bool {
	verbs, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return verbs[verb]
}

// ValidRole reports whether the role exists in the permission table.
func ValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}
