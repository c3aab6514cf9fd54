package handlers

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/domain/event"
	"parishdesk/internal/infrastructure/http/v1/dto"
)

// EventHandler handles event endpoints under /org/{slug}/events.
type EventHandler struct {
	*BaseHandler
	service *event.Service
}

// NewEventHandler creates a new event handler.
func NewEventHandler(base *BaseHandler, service *event.Service) *EventHandler {
	return &EventHandler{BaseHandler: base, service: service}
}

// List handles GET /org/:slug/events with optional ?from=&to= range.
func (h *EventHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	var q dto.EventListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	var (
		events []*event.Event
		err    error
	)
	if q.From != nil && q.To != nil {
		events, err = h.service.ListByRange(ctx, orgID, *q.From, *q.To)
	} else {
		events, err = h.service.ListByOrg(ctx, orgID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.EventResponse, len(events))
	for i, e := range events {
		items[i] = dto.FromEvent(e)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}

// Create handles POST /org/:slug/events
func (h *EventHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := event.New(orgID, req.Title, req.StartsAt, req.EndsAt)
	e.Description = req.Description
	e.Location = req.Location
	e.Capacity = req.Capacity
	e.RegistrationFee = req.RegistrationFee

	if err := h.service.Create(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID.String())
}

// Get handles GET /org/:slug/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.Get(ctx, orgID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEvent(e))
}

// Update handles PUT /org/:slug/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.Get(ctx, orgID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	e.Version = req.Version
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	if req.RegistrationFee != nil {
		e.RegistrationFee = *req.RegistrationFee
	}

	if err := h.service.Update(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEvent(e))
}

// Delete handles DELETE /org/:slug/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orgID, eventID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Register handles POST /org/:slug/events/:id/register — signs the current
// user up for the event.
func (h *EventHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	reg, err := h.service.Register(ctx, orgID, eventID, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRegistration(reg))
}

// Unregister handles DELETE /org/:slug/events/:id/register
func (h *EventHandler) Unregister(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	if err := h.service.Unregister(ctx, orgID, eventID, userID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListRegistrations handles GET /org/:slug/events/:id/registrations
func (h *EventHandler) ListRegistrations(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, ok := h.OrgID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	regs, err := h.service.ListRegistrations(ctx, orgID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.RegistrationResponse, len(regs))
	for i, r := range regs {
		items[i] = dto.FromRegistration(r)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items))})
}
