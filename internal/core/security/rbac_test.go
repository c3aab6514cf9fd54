package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name string
		role Role
		verb Verb
		want bool
	}{
		{"owner admin", RoleOwner, VerbAdmin, true},
		{"owner delete", RoleOwner, VerbDelete, true},
		{"admin admin", RoleAdmin, VerbAdmin, true},
		{"admin create", RoleAdmin, VerbCreate, true},
		{"leader read", RoleLeader, VerbRead, true},
		{"leader create", RoleLeader, VerbCreate, true},
		{"leader update", RoleLeader, VerbUpdate, true},
		{"leader delete", RoleLeader, VerbDelete, false},
		{"leader admin", RoleLeader, VerbAdmin, false},
		{"member read", RoleMember, VerbRead, true},
		{"member create", RoleMember, VerbCreate, false},
		{"member update", RoleMember, VerbUpdate, false},
		{"member delete", RoleMember, VerbDelete, false},
		{"unknown role", Role("pope"), VerbRead, false},
		{"empty role", Role(""), VerbRead, false},
		{"unknown verb", RoleOwner, Verb("transmogrify"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.verb))
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleAdmin, RoleLeader, RoleMember} {
		assert.True(t, ValidRole(role), string(role))
	}
	assert.False(t, ValidRole(Role("superuser")))
	assert.False(t, ValidRole(Role("")))
	assert.False(t, ValidRole(Role("Owner"))) // roles are case-sensitive
}
