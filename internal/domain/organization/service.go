package organization

import (
	"context"
	"encoding/json"
	"fmt"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/audit"
)

// Service provides business logic for organizations.
type Service struct {
	repo  Repository
	audit audit.Logger
}

// NewService creates a new organization service.
func NewService(repo Repository, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{repo: repo, audit: auditLog}
}

// Create validates and persists a new organization. Slug must be unique.
func (s *Service) Create(ctx context.Context, org *Organization) error {
	if err := org.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetBySlug(ctx, org.Slug)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check slug: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("organization", "slug", org.Slug)
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return err
	}

	s.logAudit(ctx, org, audit.ActionCreate)
	return nil
}

// Get retrieves an organization by ID.
func (s *Service) Get(ctx context.Context, orgID id.ID) (*Organization, error) {
	return s.repo.GetByID(ctx, orgID)
}

// GetBySlug retrieves a live organization by its URL slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Update validates and persists changes. Slug changes must stay unique.
func (s *Service) Update(ctx context.Context, org *Organization) error {
	if err := org.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetBySlug(ctx, org.Slug)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check slug: %w", err)
	}
	if existing != nil && existing.ID != org.ID {
		return apperror.NewDuplicate("organization", "slug", org.Slug)
	}

	org.Touch()
	if err := s.repo.Update(ctx, org); err != nil {
		return err
	}

	s.logAudit(ctx, org, audit.ActionUpdate)
	return nil
}

// SetFeatures replaces the enabled feature list inside the settings blob,
// preserving the other settings keys.
func (s *Service) SetFeatures(ctx context.Context, orgID id.ID, features []string) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}

	var settings map[string]any
	if len(org.Settings) > 0 {
		if err := json.Unmarshal(org.Settings, &settings); err != nil {
			return apperror.NewValidation("organization settings are malformed").
				WithDetail("organization_id", orgID.String())
		}
	} else {
		settings = make(map[string]any)
	}
	settings["features_enabled"] = features

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	org.Settings = raw

	return s.Update(ctx, org)
}

// Delete soft-deletes an organization.
func (s *Service) Delete(ctx context.Context, orgID id.ID) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, orgID); err != nil {
		return err
	}

	s.logAudit(ctx, org, audit.ActionDelete)
	return nil
}

// List returns organizations matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) logAudit(ctx context.Context, org *Organization, action audit.Action) {
	// Audit failures never fail the operation itself.
	_ = s.audit.Log(ctx, audit.Entry{
		OrganizationID: org.ID,
		EntityType:     "organization",
		EntityID:       org.ID.String(),
		Action:         action,
	})
}
