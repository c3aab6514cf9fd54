package group

import (
	"context"

	"parishdesk/internal/core/id"
)

// Repository persists groups and their rosters. All lookups exclude
// soft-deleted rows and are scoped by organization_id.
type Repository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, orgID, groupID id.ID) (*Group, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, orgID, groupID id.ID) error
	ListByOrg(ctx context.Context, orgID id.ID) ([]*Group, error)

	AddMember(ctx context.Context, m *Member) error
	RemoveMember(ctx context.Context, groupID, userID id.ID) error
	ListMembers(ctx context.Context, groupID id.ID) ([]*Member, error)
	IsMember(ctx context.Context, groupID, userID id.ID) (bool, error)
}
