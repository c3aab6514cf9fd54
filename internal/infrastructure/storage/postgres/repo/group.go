package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/group"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// GroupRepo is the PostgreSQL group and roster repository.
type GroupRepo struct {
	*Base[*group.Group]
	memberCols []string
}

// NewGroupRepo creates a group repository.
func NewGroupRepo(txm *postgres.TxManager) *GroupRepo {
	return &GroupRepo{
		Base:       NewBase(txm, "groups", func() *group.Group { return &group.Group{} }),
		memberCols: postgres.ExtractDBColumns[*group.Member](),
	}
}

var _ group.Repository = (*GroupRepo)(nil)

const groupMemberTable = "group_members"

func (r *GroupRepo) GetByID(ctx context.Context, orgID, groupID id.ID) (*group.Group, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": groupID}).
		Where(squirrel.Eq{"organization_id": orgID})
	return r.GetOne(ctx, q, groupID.String())
}

func (r *GroupRepo) Delete(ctx context.Context, orgID, groupID id.ID) error {
	return r.SoftDelete(ctx,
		squirrel.Eq{"id": groupID},
		squirrel.Eq{"organization_id": orgID},
	)
}

func (r *GroupRepo) ListByOrg(ctx context.Context, orgID id.ID) ([]*group.Group, error) {
	q := r.Select().
		Where(squirrel.Eq{"organization_id": orgID}).
		OrderBy("name ASC")
	return r.SelectMany(ctx, q)
}

func (r *GroupRepo) AddMember(ctx context.Context, m *group.Member) error {
	sql, args, err := r.Builder().
		Insert(groupMemberTable).
		SetMap(postgres.StructToMap(m)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, m.ID)
	}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID id.ID) error {
	sql, args, err := r.Builder().
		Delete(groupMemberTable).
		Where(squirrel.Eq{"group_id": groupID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID id.ID) ([]*group.Member, error) {
	sql, args, err := r.Builder().
		Select(r.memberCols...).
		From(groupMemberTable).
		Where(squirrel.Eq{"group_id": groupID}).
		OrderBy("joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var members []*group.Member
	if err := pgxscan.Select(ctx, r.querier(ctx), &members, sql, args...); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(groupMemberTable).
		Where(squirrel.Eq{"group_id": groupID}).
		Where(squirrel.Eq{"user_id": userID}).
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
		return false, fmt.Errorf("is member: %w", err)
	}
	return true, nil
}
