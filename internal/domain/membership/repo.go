package membership

import (
	"context"

	"parishdesk/internal/core/id"
)

// Repository defines persistence operations for memberships.
// Every lookup excludes soft-deleted rows: a removed member must never
// resolve tenant context again.
type Repository interface {
	Create(ctx context.Context, m *Membership) error
	GetByID(ctx context.Context, membershipID id.ID) (*Membership, error)
	// GetByUserAndOrg returns the live membership for (user, org),
	// or a NotFound error.
	GetByUserAndOrg(ctx context.Context, userID, orgID id.ID) (*Membership, error)
	ListByOrg(ctx context.Context, orgID id.ID) ([]*Membership, error)
	ListByUser(ctx context.Context, userID id.ID) ([]*Membership, error)
	// Update applies optimistic locking on the version column.
	Update(ctx context.Context, m *Membership) error
	// Delete soft-deletes (sets deleted_at).
	Delete(ctx context.Context, membershipID id.ID) error
}
