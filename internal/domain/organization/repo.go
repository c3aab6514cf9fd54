package organization

import (
	"context"

	"parishdesk/internal/core/id"
)

// ListFilter contains filtering options for organization lists.
type ListFilter struct {
	Search         string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ListResult contains paginated results.
type ListResult struct {
	Items      []*Organization `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// Repository defines persistence operations for organizations.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, orgID id.ID) (*Organization, error)
	// GetBySlug excludes soft-deleted organizations.
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	// Update applies optimistic locking on the version column.
	Update(ctx context.Context, org *Organization) error
	// Delete soft-deletes (sets deleted_at).
	Delete(ctx context.Context, orgID id.ID) error
	List(ctx context.Context, filter ListFilter) (ListResult, error)
}
