package event

import (
	"context"
	"time"

	"parishdesk/internal/core/id"
)

// Repository persists events and registrations. All lookups exclude
// soft-deleted rows and are scoped by organization_id.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, orgID, eventID id.ID) (*Event, error)
	// GetByIDForUpdate locks the event row for the rest of the current
	// transaction; only valid inside tx.Manager.RunInTransaction.
	GetByIDForUpdate(ctx context.Context, orgID, eventID id.ID) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, orgID, eventID id.ID) error
	ListByOrg(ctx context.Context, orgID id.ID) ([]*Event, error)
	ListByRange(ctx context.Context, orgID id.ID, from, to time.Time) ([]*Event, error)

	CreateRegistration(ctx context.Context, r *Registration) error
	DeleteRegistration(ctx context.Context, eventID, userID id.ID) error
	ListRegistrations(ctx context.Context, eventID id.ID) ([]*Registration, error)
	CountRegistrations(ctx context.Context, eventID id.ID) (int, error)
}
