// Package main is the entry point for the ParishDesk API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"parishdesk/internal/domain/auth"
	"parishdesk/internal/domain/event"
	"parishdesk/internal/domain/group"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/domain/template"
	"parishdesk/internal/infrastructure/cache"
	v1 "parishdesk/internal/infrastructure/http/v1"
	"parishdesk/internal/infrastructure/ratelimit"
	"parishdesk/internal/infrastructure/session"
	"parishdesk/internal/infrastructure/storage/postgres"
	"parishdesk/internal/infrastructure/storage/postgres/repo"
	"parishdesk/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting parishdesk server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional; sessions and rate limiting fall back to memory) ---
	var redisClient redis.UniversalClient
	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalw("invalid REDIS_URL", "error", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to ping redis", "error", err)
		}
		redisClient = client
		defer client.Close()
		log.Info("redis connection established")
	}

	// --- Sessions and rate limiting ---
	var sessions auth.SessionStore
	var limiter ratelimit.Limiter
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient)
		limiter = ratelimit.NewRedisLimiter(redisClient, ratelimit.DefaultConfig())
	} else {
		log.Warn("no REDIS_URL set, sessions and rate limits are process-local")
		sessions = session.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultConfig())
	}

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Organization cache ---
	// Cached reads sit on the hot path of every /org request. Invalidation
	// rides LISTEN/NOTIFY so other instances drop stale entries too.
	orgRepo := repo.NewOrganizationRepo(txManager)
	orgCache := cache.NewOrgCache(orgRepo, pool.Pool, cache.NewMemoryStore())
	if err := orgCache.Start(ctx); err != nil {
		log.Fatalw("failed to start organization cache", "error", err)
	}
	defer orgCache.Stop()

	// --- Domain services ---
	organizations := organization.NewService(orgCache, auditService)
	memberships := membership.NewService(repo.NewMembershipRepo(txManager), orgCache, auditService)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(
		repo.NewUserRepo(txManager),
		repo.NewTokenRepo(txManager),
		sessions,
		memberships,
		jwtService,
		auditService,
		auth.DefaultServiceConfig(),
	)

	groups := group.NewService(repo.NewGroupRepo(txManager), auditService)
	events := event.NewService(repo.NewEventRepo(txManager), txManager, auditService)
	templates := template.NewService(repo.NewTemplateRepo(txManager), auditService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		Pool:          pool,
		Redis:         redisClient,
		JWTService:    jwtService,
		RateLimiter:   limiter,
		AuthService:   authService,
		Organizations: organizations,
		Memberships:   memberships,
		Groups:        groups,
		Events:        events,
		Templates:     templates,
		SecureCookies: getEnv("APP_ENV", "development") != "development",
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
