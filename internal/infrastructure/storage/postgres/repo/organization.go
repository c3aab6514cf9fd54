package repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// OrganizationRepo is the PostgreSQL organization repository.
type OrganizationRepo struct {
	*Base[*organization.Organization]
}

// NewOrganizationRepo creates an organization repository.
func NewOrganizationRepo(txm *postgres.TxManager) *OrganizationRepo {
	return &OrganizationRepo{
		Base: NewBase(txm, "organizations", func() *organization.Organization {
			return &organization.Organization{}
		}),
	}
}

var _ organization.Repository = (*OrganizationRepo)(nil)

func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	return r.GetOne(ctx, r.Select().Where(squirrel.Eq{"slug": slug}), slug)
}

func (r *OrganizationRepo) Delete(ctx context.Context, orgID id.ID) error {
	return r.SoftDelete(ctx, squirrel.Eq{"id": orgID})
}

func (r *OrganizationRepo) List(ctx context.Context, filter organization.ListFilter) (organization.ListResult, error) {
	result := organization.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
	if !filter.IncludeDeleted {
		q = q.Where(notDeleted())
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"slug": pattern},
		})
	}

	count, err := r.Count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = int64(count)

	q = q.OrderBy("name ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	items, err := r.SelectMany(ctx, q)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}
