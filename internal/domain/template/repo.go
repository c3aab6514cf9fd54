package template

import (
	"context"

	"parishdesk/internal/core/id"
)

// Repository persists templates. All lookups exclude soft-deleted rows and
// are scoped by organization_id.
type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, orgID, templateID id.ID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, orgID, templateID id.ID) error
	ListByOrg(ctx context.Context, orgID id.ID) ([]*Template, error)
}
