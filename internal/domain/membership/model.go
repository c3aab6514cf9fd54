// Package membership provides the user↔organization relation that carries
// the per-organization role. It is the tenancy backbone: a request under
// /org/{slug} is authorized only through an active membership.
package membership

import (
	"context"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
)

// Membership links a user to an organization with one role.
// At most one live membership exists per (user, organization) pair.
type Membership struct {
	entity.Base

	OrganizationID id.ID         `db:"organization_id" json:"organizationId"`
	UserID         id.ID         `db:"user_id" json:"userId"`
	Role           security.Role `db:"role" json:"role"`

	// InvitedBy is the user who issued the invite, when joined via invite.
	InvitedBy *id.ID `db:"invited_by" json:"invitedBy,omitempty"`

	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// New creates a Membership with defaults.
func New(orgID, userID id.ID, role security.Role) *Membership {
	return &Membership{
		Base:           entity.NewBase(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (m *Membership) Validate(ctx context.Context) error {
	if id.IsNil(m.OrganizationID) {
		return apperror.NewValidation("organization is required").WithDetail("field", "organizationId")
	}
	if id.IsNil(m.UserID) {
		return apperror.NewValidation("user is required").WithDetail("field", "userId")
	}
	if !security.ValidRole(m.Role) {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", string(m.Role))
	}
	return nil
}
