package dto

import (
	"encoding/json"
	"time"

	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
)

// OrganizationResponse is the public view of a tenant.
type OrganizationResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FromOrganization creates OrganizationResponse from organization.Organization.
func FromOrganization(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Slug:      o.Slug,
		Settings:  o.Settings,
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// CreateOrganizationRequest provisions a new tenant.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// UpdateOrganizationRequest updates tenant details. Settings replaces the
// whole blob when present.
type UpdateOrganizationRequest struct {
	Name     *string         `json:"name"`
	Settings json.RawMessage `json:"settings"`
	Version  int             `json:"version" binding:"required,min=1"`
}

// SetFeaturesRequest replaces the enabled feature list.
type SetFeaturesRequest struct {
	Features []string `json:"features" binding:"required"`
}

// MembershipResponse is the public view of an org membership.
type MembershipResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	UserID         string    `json:"userId"`
	Role           string    `json:"role"`
	InvitedBy      string    `json:"invitedBy,omitempty"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// FromMembership creates MembershipResponse from membership.Membership.
func FromMembership(m *membership.Membership) MembershipResponse {
	resp := MembershipResponse{
		ID:             m.ID.String(),
		OrganizationID: m.OrganizationID.String(),
		UserID:         m.UserID.String(),
		Role:           string(m.Role),
		JoinedAt:       m.JoinedAt,
	}
	if m.InvitedBy != nil {
		resp.InvitedBy = m.InvitedBy.String()
	}
	return resp
}

// InviteRequest invites an email into the organization.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// InviteResponse returns the invite token. In production the token goes out
// by email; the response carries it for the mailer and for tests.
type InviteResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// ChangeRoleRequest changes a member's role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
