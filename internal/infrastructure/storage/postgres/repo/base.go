// Package repo provides PostgreSQL repository implementations. Repositories
// receive the TxManager at construction and share the single pool; tenant
// isolation is logical, every query over an org-owned table filters by
// organization_id. Soft-deleted rows (deleted_at set) are excluded from all
// reads.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// Base provides common CRUD operations over a soft-deleting table.
// Embed this in specific repositories.
type Base[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

// NewBase creates a base repository for a table.
func NewBase[T any](txm *postgres.TxManager, tableName string, newFn func() T) *Base[T] {
	return &Base[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *Base[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Base[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// notDeleted is the liveness condition shared by every read.
func notDeleted() squirrel.Sqlizer {
	return squirrel.Eq{"deleted_at": nil}
}

// Select returns a builder pre-filtered to live rows.
func (r *Base[T]) Select() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(notDeleted())
}

// Create inserts a new entity using its "db" tags.
func (r *Base[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, data["id"])
	}
	return nil
}

// Update modifies an existing entity with optimistic locking. The version
// column is managed here: the match is on the entity's current version and
// the row is bumped atomically.
func (r *Base[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "created_at":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Where(notDeleted()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, entityID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	return nil
}

// GetOne executes a SELECT expected to return a single live row.
func (r *Base[T]) GetOne(ctx context.Context, q squirrel.SelectBuilder, key any) (T, error) {
	entity := r.newFn()

	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// SelectMany executes a SELECT returning all matching rows.
func (r *Base[T]) SelectMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}

// GetByID retrieves a live entity by primary key.
func (r *Base[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.GetOne(ctx, r.Select().Where(squirrel.Eq{"id": entityID}), entityID.String())
}

// SoftDelete marks a row deleted. Reads stop returning it immediately.
func (r *Base[T]) SoftDelete(ctx context.Context, conds ...squirrel.Sqlizer) error {
	q := r.Builder().
		Update(r.tableName).
		Set("deleted_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(notDeleted())
	for _, cond := range conds {
		q = q.Where(cond)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, "matching row")
	}
	return nil
}

// Count returns the number of rows matching the builder.
func (r *Base[T]) Count(ctx context.Context, q squirrel.SelectBuilder) (int, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return count, nil
}

// mapWriteError translates PostgreSQL constraint violations to app errors.
func (r *Base[T]) mapWriteError(err error, entityID any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperror.NewConflict("record violates a uniqueness constraint").
				WithDetail("entity", r.tableName).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case "23503":
			return apperror.NewConflict("record is referenced by other data").
				WithDetail("entity", r.tableName).
				WithDetail("id", fmt.Sprintf("%v", entityID)).
				WithCause(err)
		}
	}
	return fmt.Errorf("write %s: %w", r.tableName, err)
}
