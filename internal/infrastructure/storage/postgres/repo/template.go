package repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/template"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// TemplateRepo is the PostgreSQL message template repository.
type TemplateRepo struct {
	*Base[*template.Template]
}

// NewTemplateRepo creates a template repository.
func NewTemplateRepo(txm *postgres.TxManager) *TemplateRepo {
	return &TemplateRepo{
		Base: NewBase(txm, "message_templates", func() *template.Template {
			return &template.Template{}
		}),
	}
}

var _ template.Repository = (*TemplateRepo)(nil)

func (r *TemplateRepo) GetByID(ctx context.Context, orgID, templateID id.ID) (*template.Template, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": templateID}).
		Where(squirrel.Eq{"organization_id": orgID})
	return r.GetOne(ctx, q, templateID.String())
}

func (r *TemplateRepo) Delete(ctx context.Context, orgID, templateID id.ID) error {
	return r.SoftDelete(ctx,
		squirrel.Eq{"id": templateID},
		squirrel.Eq{"organization_id": orgID},
	)
}

func (r *TemplateRepo) ListByOrg(ctx context.Context, orgID id.ID) ([]*template.Template, error) {
	q := r.Select().
		Where(squirrel.Eq{"organization_id": orgID}).
		OrderBy("name ASC")
	return r.SelectMany(ctx, q)
}
