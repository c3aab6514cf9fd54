package repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// MembershipRepo is the PostgreSQL membership repository.
type MembershipRepo struct {
	*Base[*membership.Membership]
}

// NewMembershipRepo creates a membership repository.
func NewMembershipRepo(txm *postgres.TxManager) *MembershipRepo {
	return &MembershipRepo{
		Base: NewBase(txm, "memberships", func() *membership.Membership {
			return &membership.Membership{}
		}),
	}
}

var _ membership.Repository = (*MembershipRepo)(nil)

func (r *MembershipRepo) GetByUserAndOrg(ctx context.Context, userID, orgID id.ID) (*membership.Membership, error) {
	q := r.Select().
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"organization_id": orgID})
	return r.GetOne(ctx, q, userID.String()+"/"+orgID.String())
}

func (r *MembershipRepo) ListByOrg(ctx context.Context, orgID id.ID) ([]*membership.Membership, error) {
	q := r.Select().
		Where(squirrel.Eq{"organization_id": orgID}).
		OrderBy("joined_at ASC")
	return r.SelectMany(ctx, q)
}

func (r *MembershipRepo) ListByUser(ctx context.Context, userID id.ID) ([]*membership.Membership, error) {
	q := r.Select().
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("joined_at ASC")
	return r.SelectMany(ctx, q)
}

func (r *MembershipRepo) Delete(ctx context.Context, membershipID id.ID) error {
	return r.SoftDelete(ctx, squirrel.Eq{"id": membershipID})
}
