// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"parishdesk/internal/core/id"
	"parishdesk/internal/infrastructure/storage/postgres"
	"parishdesk/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	adminID, err := seedSuperadmin(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed superadmin", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoOrganization(ctx, pool, log, adminID); err != nil {
			log.Fatalw("failed to seed demo organization", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedSuperadmin(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@parishdesk.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("superadmin already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check superadmin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_superadmin, attributes, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'Platform', 'Admin', true, true, '{}', $4, $4, 1)
	`, userID, adminEmail, string(passwordHash), now)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert superadmin: %w", err)
	}

	log.Infow("superadmin created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

func seedDemoOrganization(ctx context.Context, pool *postgres.Pool, log *logger.Logger, adminID id.ID) error {
	log.Info("seeding demo organization...")

	now := time.Now().UTC()
	slug := "first-community"
	settings := `{"features_enabled": ["events", "groups", "messaging"], "timezone": "America/Chicago", "plan": "standard"}`

	orgID := id.New()
	tag, err := pool.Pool.Exec(ctx, `
		INSERT INTO organizations (id, name, slug, settings, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $5, 1)
		ON CONFLICT (slug) WHERE deleted_at IS NULL DO NOTHING
	`, orgID, "First Community Church", slug, settings, now)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := pool.Pool.QueryRow(ctx,
			`SELECT id FROM organizations WHERE slug = $1 AND deleted_at IS NULL`, slug,
		).Scan(&orgID); err != nil {
			return fmt.Errorf("fetch existing organization: %w", err)
		}
		log.Infow("demo organization already exists", "slug", slug, "org_id", orgID)
	}

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO memberships (id, organization_id, user_id, role, joined_at, created_at, updated_at, version)
		VALUES ($1, $2, $3, 'owner', $4, $4, $4, 1)
		ON CONFLICT (organization_id, user_id) WHERE deleted_at IS NULL DO NOTHING
	`, id.New(), orgID, adminID, now)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO groups (id, organization_id, name, description, meeting_day, is_open, created_at, updated_at, version)
		VALUES ($1, $2, 'Welcome Team', 'Greets newcomers on Sunday mornings', 'Sundays 9am', true, $3, $3, 1)
		ON CONFLICT DO NOTHING
	`, id.New(), orgID, now)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	sunday := now.Truncate(24 * time.Hour).Add(7 * 24 * time.Hour)
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO events (id, organization_id, title, description, location, starts_at, ends_at, capacity, registration_fee, created_at, updated_at, version)
		VALUES ($1, $2, 'Newcomer Lunch', 'Lunch for first-time visitors', 'Fellowship Hall', $3, $4, 40, 0, $5, $5, 1)
		ON CONFLICT DO NOTHING
	`, id.New(), orgID, sunday.Add(12*time.Hour), sunday.Add(14*time.Hour), now)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO message_templates (id, organization_id, name, subject, body, created_at, updated_at, version)
		VALUES ($1, $2, 'Welcome Email', 'Welcome to {{ church_name }}',
			'Hi {{ first_name }}, thanks for visiting us! We meet every {{ service_day }}.', $3, $3, 1)
		ON CONFLICT DO NOTHING
	`, id.New(), orgID, now)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	log.Infow("demo organization seeded", "slug", slug, "org_id", orgID)
	return nil
}
