package event

import (
	"context"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/tx"
	"parishdesk/internal/domain/audit"
)

// Service provides business logic for events.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Logger
}

// NewService creates a new event service.
func NewService(repo Repository, txManager tx.Manager, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{repo: repo, txManager: txManager, audit: auditLog}
}

// Create validates and persists a new event.
func (s *Service) Create(ctx context.Context, e *Event) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	s.logAudit(ctx, e, audit.ActionCreate)
	return nil
}

// Get retrieves an event within an organization.
func (s *Service) Get(ctx context.Context, orgID, eventID id.ID) (*Event, error) {
	return s.repo.GetByID(ctx, orgID, eventID)
}

// Update validates and persists changes to an event.
func (s *Service) Update(ctx context.Context, e *Event) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	e.Touch()
	if err := s.repo.Update(ctx, e); err != nil {
		return err
	}
	s.logAudit(ctx, e, audit.ActionUpdate)
	return nil
}

// Delete soft-deletes an event.
func (s *Service) Delete(ctx context.Context, orgID, eventID id.ID) error {
	e, err := s.repo.GetByID(ctx, orgID, eventID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, eventID); err != nil {
		return err
	}
	s.logAudit(ctx, e, audit.ActionDelete)
	return nil
}

// ListByOrg returns all live events in an organization.
func (s *Service) ListByOrg(ctx context.Context, orgID id.ID) ([]*Event, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

// ListByRange returns events overlapping [from, to).
func (s *Service) ListByRange(ctx context.Context, orgID id.ID, from, to time.Time) ([]*Event, error) {
	if !to.After(from) {
		return nil, apperror.NewValidation("range end must be after range start")
	}
	return s.repo.ListByRange(ctx, orgID, from, to)
}

// Register signs a user up for an event. The event row is locked for the
// transaction, so concurrent registrations serialize and the capacity count
// cannot race past the limit.
func (s *Service) Register(ctx context.Context, orgID, eventID, userID id.ID) (*Registration, error) {
	var reg *Registration
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByIDForUpdate(ctx, orgID, eventID)
		if err != nil {
			return err
		}

		if e.Capacity > 0 {
			count, err := s.repo.CountRegistrations(ctx, eventID)
			if err != nil {
				return err
			}
			if count >= e.Capacity {
				return apperror.NewConflict("event is full").
					WithDetail("event_id", eventID.String()).
					WithDetail("capacity", e.Capacity)
			}
		}

		reg = NewRegistration(e, userID)
		return s.repo.CreateRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Unregister removes a user's registration.
func (s *Service) Unregister(ctx context.Context, orgID, eventID, userID id.ID) error {
	if _, err := s.repo.GetByID(ctx, orgID, eventID); err != nil {
		return err
	}
	return s.repo.DeleteRegistration(ctx, eventID, userID)
}

// ListRegistrations returns the sign-up list for an event.
func (s *Service) ListRegistrations(ctx context.Context, orgID, eventID id.ID) ([]*Registration, error) {
	if _, err := s.repo.GetByID(ctx, orgID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrations(ctx, eventID)
}

func (s *Service) logAudit(ctx context.Context, e *Event, action audit.Action) {
	_ = s.audit.Log(ctx, audit.Entry{
		OrganizationID: e.OrganizationID,
		EntityType:     "event",
		EntityID:       e.ID.String(),
		Action:         action,
	})
}
