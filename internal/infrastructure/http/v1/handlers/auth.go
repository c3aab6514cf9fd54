// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/domain/auth"
	"parishdesk/internal/infrastructure/http/v1/dto"
	"parishdesk/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles sign-up, sign-in, and the token flows.
type AuthHandler struct {
	*BaseHandler
	service       *auth.Service
	secureCookies bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   base,
		service:       service,
		secureCookies: secureCookies,
	}
}

// SignUp handles POST /sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	ctx := c.Request.Context()

	var req auth.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// SignIn handles POST /sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	ctx := c.Request.Context()

	var req auth.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.SignIn(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setSessionCookie(c, session)
	h.OK(c, dto.FromSession(session))
}

// SignOut handles POST /sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := h.User(c)
	if !ok {
		return
	}

	if user.SessionToken != "" {
		if err := h.service.SignOut(ctx, user.SessionToken); err != nil {
			h.Error(c, err)
			return
		}
	}

	h.clearSessionCookie(c)
	h.NoContent(c)
}

// ForgotPassword handles POST /forgot-password
//
// Always responds 200: unknown emails must be indistinguishable from
// known ones.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ForgotPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	// The token goes out by email; the response never carries it.
	if _, err := h.service.ForgotPassword(ctx, req.Email); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "if the account exists, a reset link has been sent")
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(ctx, req.Token, req.Password); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password updated")
}

// AcceptInvite handles POST /accept-invite
func (h *AuthHandler) AcceptInvite(c *gin.Context) {
	ctx := c.Request.Context()

	var req auth.AcceptInviteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.AcceptInvite(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// UpdateMe handles PUT /auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(ctx, userID, req.FirstName, req.LastName)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password changed")
}

// Token handles POST /auth/token — issues a JWT for API clients that hold
// a valid session.
func (h *AuthHandler) Token(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	token, expiresAt, err := h.service.IssueAccessToken(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AccessTokenResponse{AccessToken: token, ExpiresAt: expiresAt})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *auth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookies, true)
}
