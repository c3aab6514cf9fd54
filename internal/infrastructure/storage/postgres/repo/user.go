package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// UserRepo is the PostgreSQL user repository.
type UserRepo struct {
	*Base[*auth.User]
}

// NewUserRepo creates a user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		Base: NewBase(txm, "users", func() *auth.User { return &auth.User{} }),
	}
}

var _ auth.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.GetOne(ctx, r.Select().Where(squirrel.Eq{"email": email}), email)
}

func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"email": email}).
		Where(notDeleted()).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// UpdateAttributes replaces the metadata blob directly, skipping the version
// bump so it never races concurrent profile edits.
func (r *UserRepo) UpdateAttributes(ctx context.Context, userID id.ID, attrs entity.Attributes) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("attributes", attrs).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		Where(notDeleted()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update attributes: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update attributes: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update attributes: user %s not found", userID)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	return r.SoftDelete(ctx, squirrel.Eq{"id": userID})
}

func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]*auth.User, int64, error) {
	q := r.Select()
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"first_name": pattern},
			squirrel.ILike{"last_name": pattern},
		})
	}

	count, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	q = q.OrderBy("email ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	items, err := r.SelectMany(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, int64(count), nil
}
