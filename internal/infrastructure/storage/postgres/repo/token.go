package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// TokenRepo is the PostgreSQL single-use token repository. Tokens are never
// soft-deleted; expired rows are purged by DeleteExpired.
type TokenRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewTokenRepo creates a token repository.
func NewTokenRepo(txm *postgres.TxManager) *TokenRepo {
	return &TokenRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[*auth.Token](),
	}
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

const tokenTable = "auth_tokens"

func (r *TokenRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *TokenRepo) Create(ctx context.Context, token *auth.Token) error {
	sql, args, err := r.builder().
		Insert(tokenTable).
		SetMap(postgres.StructToMap(token)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepo) GetByHash(ctx context.Context, hash string) (*auth.Token, error) {
	sql, args, err := r.builder().
		Select(r.selectCols...).
		From(tokenTable).
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	token := &auth.Token{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), token, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tokenTable, "hash")
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (r *TokenRepo) MarkUsed(ctx context.Context, tokenID id.ID) error {
	sql, args, err := r.builder().
		Update(tokenTable).
		Set("used_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": tokenID}).
		Where(squirrel.Eq{"used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("token already used").WithDetail("token_id", tokenID.String())
	}
	return nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	sql, args, err := r.builder().
		Delete(tokenTable).
		Where(squirrel.Expr("expires_at < now()")).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
