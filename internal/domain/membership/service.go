package membership

import (
	"context"
	"fmt"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/audit"
	"parishdesk/internal/domain/organization"
)

// Resolution is the tenant context derived for one request: the organization
// plus the effective user's membership in it.
type Resolution struct {
	Organization *organization.Organization
	Membership   *Membership
}

// Service provides membership business logic and tenant resolution.
type Service struct {
	repo    Repository
	orgRepo organization.Repository
	audit   audit.Logger
}

// NewService creates a new membership service.
func NewService(repo Repository, orgRepo organization.Repository, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{repo: repo, orgRepo: orgRepo, audit: auditLog}
}

// Resolve maps (slug, userID) to the organization and the user's live
// membership. Missing organization and missing membership are both
// ORGANIZATION_REQUIRED: the pipeline treats them identically (redirect home)
// and the response must not reveal whether the slug exists.
func (s *Service) Resolve(ctx context.Context, slug string, userID id.ID) (*Resolution, error) {
	org, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewOrganizationRequired(slug)
		}
		return nil, fmt.Errorf("resolve organization: %w", err)
	}

	m, err := s.repo.GetByUserAndOrg(ctx, userID, org.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewOrganizationRequired(slug)
		}
		return nil, fmt.Errorf("resolve membership: %w", err)
	}

	return &Resolution{Organization: org, Membership: m}, nil
}

// Add creates a membership. One live membership per (user, org).
func (s *Service) Add(ctx context.Context, m *Membership) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByUserAndOrg(ctx, m.UserID, m.OrganizationID)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check membership: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("membership", "user", m.UserID.String())
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}

	s.logAudit(ctx, m, audit.ActionCreate)
	return nil
}

// Get loads a membership by ID.
func (s *Service) Get(ctx context.Context, membershipID id.ID) (*Membership, error) {
	return s.repo.GetByID(ctx, membershipID)
}

// ChangeRole updates a member's role.
func (s *Service) ChangeRole(ctx context.Context, membershipID id.ID, role security.Role) (*Membership, error) {
	if !security.ValidRole(role) {
		return nil, apperror.NewValidation("invalid role").WithDetail("value", string(role))
	}

	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	m.Role = role
	m.Touch()
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, m, audit.ActionUpdate)
	return m, nil
}

// Remove soft-deletes a membership. The removed user loses tenant access on
// their next request; no session invalidation is needed.
func (s *Service) Remove(ctx context.Context, membershipID id.ID) error {
	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, membershipID); err != nil {
		return err
	}

	s.logAudit(ctx, m, audit.ActionDelete)
	return nil
}

// ListByOrg returns all live memberships of one organization.
func (s *Service) ListByOrg(ctx context.Context, orgID id.ID) ([]*Membership, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// ListByUser returns all live memberships of one user.
func (s *Service) ListByUser(ctx context.Context, userID id.ID) ([]*Membership, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) logAudit(ctx context.Context, m *Membership, action audit.Action) {
	_ = s.audit.Log(ctx, audit.Entry{
		OrganizationID: m.OrganizationID,
		EntityType:     "membership",
		EntityID:       m.ID.String(),
		Action:         action,
		TargetID:       m.UserID.String(),
	})
}
