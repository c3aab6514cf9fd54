package group

import (
	"context"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/audit"
)

// Service provides business logic for groups.
type Service struct {
	repo  Repository
	audit audit.Logger
}

// NewService creates a new group service.
func NewService(repo Repository, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{repo: repo, audit: auditLog}
}

// Create validates and persists a new group.
func (s *Service) Create(ctx context.Context, g *Group) error {
	if err := g.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return err
	}
	s.logAudit(ctx, g, audit.ActionCreate)
	return nil
}

// Get retrieves a group within an organization.
func (s *Service) Get(ctx context.Context, orgID, groupID id.ID) (*Group, error) {
	return s.repo.GetByID(ctx, orgID, groupID)
}

// Update validates and persists changes to a group.
func (s *Service) Update(ctx context.Context, g *Group) error {
	if err := g.Validate(ctx); err != nil {
		return err
	}
	g.Touch()
	if err := s.repo.Update(ctx, g); err != nil {
		return err
	}
	s.logAudit(ctx, g, audit.ActionUpdate)
	return nil
}

// Delete soft-deletes a group.
func (s *Service) Delete(ctx context.Context, orgID, groupID id.ID) error {
	g, err := s.repo.GetByID(ctx, orgID, groupID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, groupID); err != nil {
		return err
	}
	s.logAudit(ctx, g, audit.ActionDelete)
	return nil
}

// ListByOrg returns all live groups in an organization.
func (s *Service) ListByOrg(ctx context.Context, orgID id.ID) ([]*Group, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// AddMember puts a user on the group roster. Adding twice is a conflict.
func (s *Service) AddMember(ctx context.Context, orgID, groupID, userID id.ID, isLeader bool) (*Member, error) {
	if _, err := s.repo.GetByID(ctx, orgID, groupID); err != nil {
		return nil, err
	}

	already, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperror.NewConflict("user is already a group member").
			WithDetail("group_id", groupID.String()).
			WithDetail("user_id", userID.String())
	}

	m := NewMember(groupID, userID, isLeader)
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveMember takes a user off the roster.
func (s *Service) RemoveMember(ctx context.Context, orgID, groupID, userID id.ID) error {
	if _, err := s.repo.GetByID(ctx, orgID, groupID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// ListMembers returns the group roster.
func (s *Service) ListMembers(ctx context.Context, orgID, groupID id.ID) ([]*Member, error) {
	if _, err := s.repo.GetByID(ctx, orgID, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

func (s *Service) logAudit(ctx context.Context, g *Group, action audit.Action) {
	_ = s.audit.Log(ctx, audit.Entry{
		OrganizationID: g.OrganizationID,
		EntityType:     "group",
		EntityID:       g.ID.String(),
		Action:         action,
	})
}
