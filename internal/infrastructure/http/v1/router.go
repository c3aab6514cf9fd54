// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/domain/event"
	"parishdesk/internal/domain/group"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/domain/template"
	"parishdesk/internal/infrastructure/http/v1/handlers"
	"parishdesk/internal/infrastructure/http/v1/middleware"
	"parishdesk/internal/infrastructure/ratelimit"
	"parishdesk/internal/infrastructure/storage/postgres"
	"parishdesk/pkg/logger"
)

// RouterConfig holds router dependencies. Rate limiter and session store
// are injected services: swapping the in-memory and Redis implementations
// is a wiring decision, not a code change.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pool is the shared database pool (health checks)
	Pool *postgres.Pool

	// Redis backs sessions and rate limiting; nil when running in-memory
	Redis redis.UniversalClient

	// JWTService validates bearer tokens for API clients
	JWTService *auth.JWTService

	// RateLimiter throttles org-scoped traffic
	RateLimiter ratelimit.Limiter

	// Domain services
	AuthService   *auth.Service
	Organizations *organization.Service
	Memberships   *membership.Service
	Groups        *group.Service
	Events        *event.Service
	Templates     *template.Service

	// SecureCookies marks cookies Secure; off for local development
	SecureCookies bool
}

// NewRouter creates and configures the Gin router.
//
// Every route runs the global middleware plus one prefix-selected stage
// stack: public (optional identity), default authenticated, /org (tenant
// scope, RBAC, feature gate, rate limit), or /superadmin.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Dispatch(newStackRegistry(cfg)))

	// Health endpoints (matched by the public stack, no session needed)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	registerAuthRoutes(router, base, cfg)
	registerOrgRoutes(router, base, cfg)
	registerSuperadminRoutes(router, base, cfg)

	return router
}

// newStackRegistry builds the per-prefix stage stacks. Longest matching
// prefix wins, so /org and /superadmin take precedence over the default
// authenticated stack at "/".
func newStackRegistry(cfg RouterConfig) *middleware.StackRegistry {
	authStage := middleware.Stage{
		Name:    "auth",
		Handler: middleware.Auth(cfg.AuthService, cfg.JWTService),
	}
	impersonationStage := middleware.Stage{
		Name:    "impersonation",
		Handler: middleware.Impersonation(cfg.AuthService, cfg.SecureCookies),
	}

	public := middleware.NewStack("public", middleware.Stage{
		Name:    "auth-optional",
		Handler: middleware.OptionalAuth(cfg.AuthService, cfg.JWTService),
	})

	authed := middleware.NewStack("auth", authStage, impersonationStage)

	org := authed.Append("org",
		middleware.Stage{Name: "organization", Handler: middleware.Organization(cfg.Memberships)},
		middleware.Stage{Name: "rbac", Handler: middleware.RBAC()},
		middleware.Stage{Name: "features", Handler: middleware.FeatureGate(appctx.OrgFlags{})},
		middleware.Stage{Name: "ratelimit", Handler: middleware.RateLimit(cfg.RateLimiter)},
	)

	superadmin := authed.Append("superadmin",
		middleware.Stage{Name: "superadmin", Handler: middleware.RequireSuperadmin()},
	)

	registry := middleware.NewStackRegistry()
	registry.Register("/", authed)
	registry.Register("/sign-in", public)
	registry.Register("/sign-up", public)
	registry.Register("/forgot-password", public)
	registry.Register("/accept-invite", public)
	registry.Register("/auth", public)
	registry.Register("/health", public)
	registry.Register("/org", org)
	registry.Register("/superadmin", superadmin)
	return registry
}
