package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/id"
	"parishdesk/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts the request.
// Actual response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseID parses a path parameter as an ID, reporting a validation error
// on failure.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+param).WithDetail("field", param))
		return id.Nil(), false
	}
	return parsed, true
}

// User returns the effective identity, or aborts unauthorized.
func (h *BaseHandler) User(c *gin.Context) (*appctx.UserContext, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return nil, false
	}
	return user, true
}

// Org returns the resolved organization scope, or aborts. Routes behind the
// organization stage always have it; this guards direct misuse.
func (h *BaseHandler) Org(c *gin.Context) (*appctx.OrgContext, bool) {
	org := appctx.GetOrg(c.Request.Context())
	if org == nil {
		h.Error(c, apperror.NewOrganizationRequired(""))
		return nil, false
	}
	return org, true
}

// OrgID returns the resolved organization ID, or aborts.
func (h *BaseHandler) OrgID(c *gin.Context) (id.ID, bool) {
	org, ok := h.Org(c)
	if !ok {
		return id.Nil(), false
	}
	orgID, err := id.Parse(org.OrgID)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return id.Nil(), false
	}
	return orgID, true
}

// UserID returns the effective user ID, or aborts.
func (h *BaseHandler) UserID(c *gin.Context) (id.ID, bool) {
	user, ok := h.User(c)
	if !ok {
		return id.Nil(), false
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return id.Nil(), false
	}
	return userID, true
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
