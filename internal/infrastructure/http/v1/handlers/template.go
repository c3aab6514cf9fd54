package handlers

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/domain/template"
	"parishdesk/internal/infrastructure/http/v1/dto"
)

// TemplateHandler handles message-template endpoints under
// /org/{slug}/templates.
type TemplateHandler struct {
	*BaseHandler
	service *template.Service
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(base *BaseHandler, service *template.Service) *TemplateHandler {
	return &TemplateHandler{BaseHandler: base, service: service}
}

// List handles GET /org/:slug/templates
func (h *TemplateHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	templates, err := h.service.ListByOrg(ctx, orgID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.TemplateResponse, len(templates))
	for i, t := range templates {
		items[i] = dto.FromTemplate(t)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// Create handles POST /org/:slug/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	var req dto.CreateTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := template.New(orgID, req.Name, req.Body)
	t.Subject = req.Subject

	if err := h.service.Create(ctx, t); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID.String())
}

// Get handles GET /org/:slug/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.Get(ctx, orgID, templateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTemplate(t))
}

// Update handles PUT /org/:slug/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Get(ctx, orgID, templateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	t.Version = req.Version
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Subject != nil {
		t.Subject = *req.Subject
	}
	if req.Body != nil {
		t.Body = *req.Body
	}

	if err := h.service.Update(ctx, t); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTemplate(t))
}

// Delete handles DELETE /org/:slug/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orgID, templateID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Render handles POST /org/:slug/templates/:id/render
func (h *TemplateHandler) Render(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RenderTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	subject, body, err := h.service.Render(ctx, orgID, templateID, req.Values)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RenderTemplateResponse{Subject: subject, Body: body})
}
