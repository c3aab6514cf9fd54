package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/infrastructure/http/v1/dto"
	"parishdesk/internal/infrastructure/http/v1/middleware"
)

// SuperadminHandler handles platform-operator endpoints under /superadmin.
// The stack already enforces that the real principal is a superadmin.
type SuperadminHandler struct {
	*BaseHandler
	orgs          *organization.Service
	authService   *auth.Service
	secureCookies bool
}

// NewSuperadminHandler creates a new superadmin handler.
func NewSuperadminHandler(base *BaseHandler, orgs *organization.Service, authService *auth.Service, secureCookies bool) *SuperadminHandler {
	return &SuperadminHandler{
		BaseHandler:   base,
		orgs:          orgs,
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// ListOrganizations handles GET /superadmin/organizations
func (h *SuperadminHandler) ListOrganizations(c *gin.Context) {
	ctx := c.Request.Context()

	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	result, err := h.orgs.List(ctx, organization.ListFilter{
		Search: c.Query("search"),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.OrganizationResponse, len(result.Items))
	for i, org := range result.Items {
		items[i] = dto.FromOrganization(org)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// CreateOrganization handles POST /superadmin/organizations
func (h *SuperadminHandler) CreateOrganization(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrganizationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	org := organization.New(req.Name, req.Slug)
	if err := h.orgs.Create(ctx, org); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, org.ID.String())
}

// GetOrganization handles GET /superadmin/organizations/:id
func (h *SuperadminHandler) GetOrganization(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.ParseID(c, "id")
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

// DeleteOrganization handles DELETE /superadmin/organizations/:id
func (h *SuperadminHandler) DeleteOrganization(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.orgs.Delete(ctx, orgID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetFeatures handles PUT /superadmin/organizations/:id/features — plan
// changes flip feature flags here.
func (h *SuperadminHandler) SetFeatures(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetFeaturesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.orgs.SetFeatures(ctx, orgID, req.Features); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "features updated")
}

// ListUsers handles GET /superadmin/users
func (h *SuperadminHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	users, total, err := h.authService.ListUsers(ctx, c.Query("search"), page.PageSize, page.Offset())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, len(users))
	for i, u := range users {
		items[i] = dto.FromUser(u)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	})
}

// StartImpersonation handles POST /superadmin/impersonate/:userId
//
// On success the impersonation cookie is set; subsequent requests run as
// the target user until StopImpersonation.
func (h *SuperadminHandler) StartImpersonation(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := h.User(c)
	if !ok {
		return
	}
	targetID, ok := h.ParseID(c, "userId")
	if !ok {
		return
	}

	// The real principal starts and stops impersonation, even when a
	// previous impersonation is still active.
	actorID, err := id.Parse(appctx.GetRealUserID(ctx))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	target, err := h.authService.StartImpersonation(ctx, user.SessionToken, actorID, targetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setImpersonationCookie(c, target.ID.String())
	h.OK(c, gin.H{
		"impersonating": dto.FromUser(target),
		"realUserId":    actorID.String(),
	})
}

// StopImpersonation handles DELETE /superadmin/impersonate
func (h *SuperadminHandler) StopImpersonation(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := h.User(c)
	if !ok {
		return
	}

	actorID, err := id.Parse(appctx.GetRealUserID(ctx))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	if err := h.authService.StopImpersonation(ctx, user.SessionToken, actorID); err != nil {
		h.Error(c, err)
		return
	}

	h.clearImpersonationCookie(c)
	h.Success(c, "impersonation stopped")
}

func (h *SuperadminHandler) setImpersonationCookie(c *gin.Context, targetID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.ImpersonationCookie, targetID, 0, "/", "", h.secureCookies, true)
}

func (h *SuperadminHandler) clearImpersonationCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.ImpersonationCookie, "", -1, "/", "", h.secureCookies, true)
}
