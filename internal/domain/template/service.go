package template

import (
	"context"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/audit"
)

// Service provides business logic for message templates.
type Service struct {
	repo  Repository
	audit audit.Logger
}

// NewService creates a new template service.
func NewService(repo Repository, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{repo: repo, audit: auditLog}
}

// Create validates and persists a new template.
func (s *Service) Create(ctx context.Context, t *Template) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	s.logAudit(ctx, t, audit.ActionCreate)
	return nil
}

// Get retrieves a template within an organization.
func (s *Service) Get(ctx context.Context, orgID, templateID id.ID) (*Template, error) {
	return s.repo.GetByID(ctx, orgID, templateID)
}

// Update validates and persists changes to a template.
func (s *Service) Update(ctx context.Context, t *Template) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	t.Touch()
	if err := s.repo.Update(ctx, t); err != nil {
		return err
	}
	s.logAudit(ctx, t, audit.ActionUpdate)
	return nil
}

// Delete soft-deletes a template.
func (s *Service) Delete(ctx context.Context, orgID, templateID id.ID) error {
	t, err := s.repo.GetByID(ctx, orgID, templateID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, templateID); err != nil {
		return err
	}
	s.logAudit(ctx, t, audit.ActionDelete)
	return nil
}

// ListByOrg returns all live templates in an organization.
func (s *Service) ListByOrg(ctx context.Context, orgID id.ID) ([]*Template, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// Render loads a template and fills in the given values.
func (s *Service) Render(ctx context.Context, orgID, templateID id.ID, values map[string]string) (subject, body string, err error) {
	t, err := s.repo.GetByID(ctx, orgID, templateID)
	if err != nil {
		return "", "", err
	}
	return t.Render(values)
}

func (s *Service) logAudit(ctx context.Context, t *Template, action audit.Action) {
	_ = s.audit.Log(ctx, audit.Entry{
		OrganizationID: t.OrganizationID,
		EntityType:     "template",
		EntityID:       t.ID.String(),
		Action:         action,
	})
}
