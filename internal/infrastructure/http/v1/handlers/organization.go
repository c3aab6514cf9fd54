package handlers

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/infrastructure/http/v1/dto"
)

// OrganizationHandler handles tenant-scoped organization endpoints
// (everything under /org/{slug}).
type OrganizationHandler struct {
	*BaseHandler
	orgs        *organization.Service
	memberships *membership.Service
	authService *auth.Service
}

// NewOrganizationHandler creates a new organization handler.
func NewOrganizationHandler(base *BaseHandler, orgs *organization.Service, memberships *membership.Service, authService *auth.Service) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: base,
		orgs:        orgs,
		memberships: memberships,
		authService: authService,
	}
}

// ListMine handles GET /organizations — the memberships of the current
// user, used by org pickers.
func (h *OrganizationHandler) ListMine(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	members, err := h.memberships.ListByUser(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MembershipResponse, len(members))
	for i, m := range members {
		items[i] = dto.FromMembership(m)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// Get handles GET /org/:slug
func (h *OrganizationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	org, err := h.orgs.Get(ctx, orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrganization(org))
}

// Update handles PUT /org/:slug
func (h *OrganizationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrganizationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	org, err := h.orgs.Get(ctx, orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	org.Version = req.Version
	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Settings != nil {
		org.Settings = req.Settings
	}

	if err := h.orgs.Update(ctx, org); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrganization(org))
}

// ListMembers handles GET /org/:slug/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	members, err := h.memberships.ListByOrg(ctx, orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MembershipResponse, len(members))
	for i, m := range members {
		items[i] = dto.FromMembership(m)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// Invite handles POST /org/:slug/members/invite
func (h *OrganizationHandler) Invite(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	actorID, ok := h.UserID(c)
	if !ok {
		return
	}

	var req dto.InviteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	role := security.Role(req.Role)
	if !security.ValidRole(role) {
		h.Error(c, apperror.NewValidation("unknown role").WithDetail("role", req.Role))
		return
	}

	token, err := h.authService.CreateInvite(ctx, req.Email, orgID, role, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.InviteResponse{Token: token, Email: req.Email})
}

// ChangeRole handles PUT /org/:slug/members/:id/role
func (h *OrganizationHandler) ChangeRole(c *gin.Context) {
	ctx := c.Request.Context()

	membershipID, ok := h.scopedMembership(c)
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	role := security.Role(req.Role)
	if !security.ValidRole(role) {
		h.Error(c, apperror.NewValidation("unknown role").WithDetail("role", req.Role))
		return
	}

	m, err := h.memberships.ChangeRole(ctx, membershipID, role)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMembership(m))
}

// RemoveMember handles DELETE /org/:slug/members/:id
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	ctx := c.Request.Context()

	membershipID, ok := h.scopedMembership(c)
	if !ok {
		return
	}

	if err := h.memberships.Remove(ctx, membershipID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// scopedMembership parses the :id parameter and verifies the membership
// belongs to the resolved organization. Cross-tenant IDs read as not found.
func (h *OrganizationHandler) scopedMembership(c *gin.Context) (id.ID, bool) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return id.Nil(), false
	}
	membershipID, ok := h.ParseID(c, "id")
	if !ok {
		return id.Nil(), false
	}

	m, err := h.memberships.Get(ctx, membershipID)
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	if m.OrganizationID != orgID {
		h.Error(c, apperror.NewNotFound("membership", membershipID.String()))
		return id.Nil(), false
	}
	return membershipID, true
}

// Upgrade handles GET /org/:slug/upgrade — the landing target for
// feature-gate redirects.
func (h *OrganizationHandler) Upgrade(c *gin.Context) {
	org, ok := h.Org(c)
	if !ok {
		return
	}

	h.OK(c, gin.H{
		"slug":     org.Slug,
		"features": org.Features,
		"message":  "this feature is not included in the current plan",
	})
}
