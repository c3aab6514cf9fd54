package handlers

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/group"
	"parishdesk/internal/infrastructure/http/v1/dto"
)

// GroupHandler handles small-group endpoints under /org/{slug}/groups.
type GroupHandler struct {
	*BaseHandler
	service *group.Service
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(base *BaseHandler, service *group.Service) *GroupHandler {
	return &GroupHandler{BaseHandler: base, service: service}
}

// List handles GET /org/:slug/groups
func (h *GroupHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	groups, err := h.service.ListByOrg(ctx, orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.GroupResponse, len(groups))
	for i, g := range groups {
		items[i] = dto.FromGroup(g)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// Create handles POST /org/:slug/groups
func (h *GroupHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	var req dto.CreateGroupRequest
	if !h.BindJSON(c, &req) {
		return
	}

	g := group.New(orgID, req.Name)
	g.Description = req.Description
	g.MeetingDay = req.MeetingDay
	g.IsOpen = req.IsOpen

	if err := h.service.Create(ctx, g); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, g.ID.String())
}

// Get handles GET /org/:slug/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	g, err := h.service.Get(ctx, orgID, groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGroup(g))
}

// Update handles PUT /org/:slug/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGroupRequest
	if !h.BindJSON(c, &req) {
		return
	}

	g, err := h.service.Get(ctx, orgID, groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	g.Version = req.Version
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.MeetingDay != nil {
		g.MeetingDay = *req.MeetingDay
	}
	if req.IsOpen != nil {
		g.IsOpen = *req.IsOpen
	}

	if err := h.service.Update(ctx, g); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGroup(g))
}

// Delete handles DELETE /org/:slug/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orgID, groupID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListMembers handles GET /org/:slug/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	members, err := h.service.ListMembers(ctx, orgID, groupID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.GroupMemberResponse, len(members))
	for i, m := range members {
		items[i] = dto.FromGroupMember(m)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// AddMember handles POST /org/:slug/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddGroupMemberRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID, err := id.Parse(req.UserID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid userId"))
		return
	}

	m, err := h.service.AddMember(ctx, orgID, groupID, userID, req.IsLeader)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGroupMember(m))
}

// RemoveMember handles DELETE /org/:slug/groups/:id/members/:userId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	groupID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.ParseID(c, "userId")
	if !ok {
		return
	}

	if err := h.service.RemoveMember(ctx, orgID, groupID, userID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
