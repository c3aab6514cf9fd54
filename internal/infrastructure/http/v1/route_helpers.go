// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"parishdesk/internal/infrastructure/http/v1/handlers"
)

// registerAuthRoutes registers the public entry points and the /auth API.
func registerAuthRoutes(router *gin.Engine, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuthHandler(base, cfg.AuthService, cfg.SecureCookies)

	router.POST("/sign-up", h.SignUp)
	router.POST("/sign-in", h.SignIn)
	router.POST("/sign-out", h.SignOut) // default stack: requires a session
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/accept-invite", h.AcceptInvite)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.GET("/me", h.Me)
		authGroup.PUT("/me", h.UpdateMe)
		authGroup.POST("/change-password", h.ChangePassword)
		authGroup.POST("/token", h.Token)
	}
}

// registerOrgRoutes registers tenant-scoped routes. The /org stack resolves
// the organization and enforces RBAC, feature flags, and rate limits before
// any of these handlers run.
func registerOrgRoutes(router *gin.Engine, base *handlers.BaseHandler, cfg RouterConfig) {
	orgHandler := handlers.NewOrganizationHandler(base, cfg.Organizations, cfg.Memberships, cfg.AuthService)
	groupHandler := handlers.NewGroupHandler(base, cfg.Groups)
	eventHandler := handlers.NewEventHandler(base, cfg.Events)
	templateHandler := handlers.NewTemplateHandler(base, cfg.Templates)

	// Org picker for the default authenticated stack.
	router.GET("/organizations", orgHandler.ListMine)

	org := router.Group("/org/:slug")
	{
		org.GET("", orgHandler.Get)
		org.PUT("", orgHandler.Update)
		org.GET("/upgrade", orgHandler.Upgrade)

		org.GET("/members", orgHandler.ListMembers)
		org.POST("/members/invite", orgHandler.Invite)
		org.PUT("/members/:id/role", orgHandler.ChangeRole)
		org.DELETE("/members/:id", orgHandler.RemoveMember)

		groups := org.Group("/groups")
		{
			groups.GET("", groupHandler.List)
			groups.POST("", groupHandler.Create)
			groups.GET("/:id", groupHandler.Get)
			groups.PUT("/:id", groupHandler.Update)
			groups.DELETE("/:id", groupHandler.Delete)
			groups.GET("/:id/members", groupHandler.ListMembers)
			groups.POST("/:id/members", groupHandler.AddMember)
			groups.DELETE("/:id/members/:userId", groupHandler.RemoveMember)
		}

		events := org.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.POST("", eventHandler.Create)
			events.GET("/:id", eventHandler.Get)
			events.PUT("/:id", eventHandler.Update)
			events.DELETE("/:id", eventHandler.Delete)
			events.POST("/:id/register", eventHandler.Register)
			events.DELETE("/:id/register", eventHandler.Unregister)
			events.GET("/:id/registrations", eventHandler.ListRegistrations)
		}

		templates := org.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.POST("", templateHandler.Create)
			templates.GET("/:id", templateHandler.Get)
			templates.PUT("/:id", templateHandler.Update)
			templates.DELETE("/:id", templateHandler.Delete)
			templates.POST("/:id/render", templateHandler.Render)
		}
	}
}

// registerSuperadminRoutes registers platform-operator routes. The
// /superadmin stack requires the real principal to be a superadmin.
func registerSuperadminRoutes(router *gin.Engine, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSuperadminHandler(base, cfg.Organizations, cfg.AuthService, cfg.SecureCookies)

	sa := router.Group("/superadmin")
	{
		sa.GET("/organizations", h.ListOrganizations)
		sa.POST("/organizations", h.CreateOrganization)
		sa.GET("/organizations/:id", h.GetOrganization)
		sa.DELETE("/organizations/:id", h.DeleteOrganization)
		sa.PUT("/organizations/:id/features", h.SetFeatures)

		sa.GET("/users", h.ListUsers)

		sa.POST("/impersonate/:userId", h.StartImpersonation)
		sa.DELETE("/impersonate", h.StopImpersonation)
	}
}
