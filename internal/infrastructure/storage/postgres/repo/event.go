package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/event"
	"parishdesk/internal/infrastructure/storage/postgres"
)

// EventRepo is the PostgreSQL event and registration repository.
type EventRepo struct {
	*Base[*event.Event]
	registrationCols []string
}

// NewEventRepo creates an event repository.
func NewEventRepo(txm *postgres.TxManager) *EventRepo {
	return &EventRepo{
		Base:             NewBase(txm, "events", func() *event.Event { return &event.Event{} }),
		registrationCols: postgres.ExtractDBColumns[*event.Registration](),
	}
}

var _ event.Repository = (*EventRepo)(nil)

const registrationTable = "event_registrations"

func (r *EventRepo) GetByID(ctx context.Context, orgID, eventID id.ID) (*event.Event, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": eventID}).
		Where(squirrel.Eq{"organization_id": orgID})
	return r.GetOne(ctx, q, eventID.String())
}

// GetByIDForUpdate loads the event under a row lock. Concurrent
// registrations against the same event serialize on this lock, so the
// capacity count that follows cannot race. Must run inside a transaction.
func (r *EventRepo) GetByIDForUpdate(ctx context.Context, orgID, eventID id.ID) (*event.Event, error) {
	q := r.Select().
		Where(squirrel.Eq{"id": eventID}).
		Where(squirrel.Eq{"organization_id": orgID}).
		Suffix("FOR UPDATE")
	return r.GetOne(ctx, q, eventID.String())
}

func (r *EventRepo) Delete(ctx context.Context, orgID, eventID id.ID) error {
	return r.SoftDelete(ctx,
		squirrel.Eq{"id": eventID},
		squirrel.Eq{"organization_id": orgID},
	)
}

func (r *EventRepo) ListByOrg(ctx context.Context, orgID id.ID) ([]*event.Event, error) {
	q := r.Select().
		Where(squirrel.Eq{"organization_id": orgID}).
		OrderBy("starts_at ASC")
	return r.SelectMany(ctx, q)
}

// ListByRange returns events overlapping [from, to).
func (r *EventRepo) ListByRange(ctx context.Context, orgID id.ID, from, to time.Time) ([]*event.Event, error) {
	q := r.Select().
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Lt{"starts_at": to}).
		Where(squirrel.GtOrEq{"ends_at": from}).
		OrderBy("starts_at ASC")
	return r.SelectMany(ctx, q)
}

func (r *EventRepo) CreateRegistration(ctx context.Context, reg *event.Registration) error {
	sql, args, err := r.Builder().
		Insert(registrationTable).
		SetMap(postgres.StructToMap(reg)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, reg.ID)
	}
	return nil
}

func (r *EventRepo) DeleteRegistration(ctx context.Context, eventID, userID id.ID) error {
	sql, args, err := r.Builder().
		Delete(registrationTable).
		Where(squirrel.Eq{"event_id": eventID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

func (r *EventRepo) ListRegistrations(ctx context.Context, eventID id.ID) ([]*event.Registration, error) {
	sql, args, err := r.Builder().
		Select(r.registrationCols...).
		From(registrationTable).
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("registered_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var regs []*event.Registration
	if err := pgxscan.Select(ctx, r.querier(ctx), &regs, sql, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (r *EventRepo) CountRegistrations(ctx context.Context, eventID id.ID) (int, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(registrationTable).
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
