package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/types"
)

type memEventRepo struct {
	events        map[id.ID]*Event
	registrations map[id.ID][]*Registration // by eventID
	lockedReads   int
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{
		events:        map[id.ID]*Event{},
		registrations: map[id.ID][]*Registration{},
	}
}

func (r *memEventRepo) Create(_ context.Context, e *Event) error {
	r.events[e.ID] = e
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, orgID, eventID id.ID) (*Event, error) {
	e, ok := r.events[eventID]
	if !ok || e.OrganizationID != orgID || e.DeletedAt != nil {
		return nil, apperror.NewNotFound("event", eventID)
	}
	return e, nil
}

func (r *memEventRepo) GetByIDForUpdate(ctx context.Context, orgID, eventID id.ID) (*Event, error) {
	if !inTransaction(ctx) {
		return nil, apperror.NewInternal(errNoTransaction)
	}
	r.lockedReads++
	return r.GetByID(ctx, orgID, eventID)
}

func (r *memEventRepo) Update(_ context.Context, e *Event) error {
	r.events[e.ID] = e
	return nil
}

func (r *memEventRepo) Delete(_ context.Context, orgID, eventID id.ID) error {
	e, ok := r.events[eventID]
	if !ok || e.OrganizationID != orgID {
		return apperror.NewNotFound("event", eventID)
	}
	now := time.Now()
	e.DeletedAt = &now
	return nil
}

func (r *memEventRepo) ListByOrg(_ context.Context, orgID id.ID) ([]*Event, error) {
	var out []*Event
	for _, e := range r.events {
		if e.OrganizationID == orgID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) ListByRange(_ context.Context, orgID id.ID, from, to time.Time) ([]*Event, error) {
	var out []*Event
	for _, e := range r.events {
		if e.OrganizationID == orgID && e.DeletedAt == nil &&
			e.StartsAt.Before(to) && e.EndsAt.After(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) CreateRegistration(_ context.Context, reg *Registration) error {
	r.registrations[reg.EventID] = append(r.registrations[reg.EventID], reg)
	return nil
}

func (r *memEventRepo) DeleteRegistration(_ context.Context, eventID, userID id.ID) error {
	regs := r.registrations[eventID]
	for i, reg := range regs {
		if reg.UserID == userID {
			r.registrations[eventID] = append(regs[:i], regs[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("registration", userID)
}

func (r *memEventRepo) ListRegistrations(_ context.Context, eventID id.ID) ([]*Registration, error) {
	return r.registrations[eventID], nil
}

func (r *memEventRepo) CountRegistrations(_ context.Context, eventID id.ID) (int, error) {
	return len(r.registrations[eventID]), nil
}

var errNoTransaction = errors.New("locking read outside a transaction")

type fakeTxKey struct{}

func inTransaction(ctx context.Context) bool {
	return ctx.Value(fakeTxKey{}) != nil
}

// fakeTxManager marks the context so the repo fake can enforce that locking
// reads only happen inside a transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

func newEventFixture() (*Service, *memEventRepo) {
	repo := newMemEventRepo()
	return NewService(repo, fakeTxManager{}, nil), repo
}

func makeEvent(t *testing.T, svc *Service, orgID id.ID, title string, capacity int) *Event {
	t.Helper()
	e := New(orgID, title, time.Now().Add(24*time.Hour), time.Now().Add(26*time.Hour))
	e.Capacity = capacity
	require.NoError(t, svc.Create(context.Background(), e))
	return e
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()

	err := svc.Create(ctx, New(orgID, "  ", time.Now(), time.Now().Add(time.Hour)))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	start := time.Now().Add(2 * time.Hour)
	err = svc.Create(ctx, New(orgID, "Potluck", start, start.Add(-time.Hour)))
	require.Error(t, err)

	e := New(orgID, "Potluck", start, start.Add(time.Hour))
	e.RegistrationFee = types.MustMoney("-5")
	require.Error(t, svc.Create(ctx, e))
}

func TestRegisterCapacity(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()
	e := makeEvent(t, svc, orgID, "Retreat", 2)

	_, err := svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)
	_, err = svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)

	_, err = svc.Register(ctx, orgID, e.ID, id.New())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, "event is full", appErr.Message)
}

func TestRegisterLocksEventRow(t *testing.T) {
	svc, repo := newEventFixture()
	ctx := context.Background()
	orgID := id.New()
	e := makeEvent(t, svc, orgID, "Retreat", 3)

	// The capacity check must go through the locking read, inside the
	// transaction, or two concurrent sign-ups could both pass it.
	_, err := svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lockedReads)

	_, err = svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lockedReads)
}

func TestRegisterUnlimitedCapacity(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()
	e := makeEvent(t, svc, orgID, "Sunday Service", 0)

	for i := 0; i < 50; i++ {
		_, err := svc.Register(ctx, orgID, e.ID, id.New())
		require.NoError(t, err)
	}
}

func TestRegisterCapturesFee(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()

	e := makeEvent(t, svc, orgID, "Banquet", 10)
	e.RegistrationFee = types.MustMoney("25.50")
	require.NoError(t, svc.Update(ctx, e))

	reg, err := svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)
	assert.True(t, reg.FeePaid.Equal(types.MustMoney("25.50")))

	// A later fee change does not touch existing registrations.
	e.RegistrationFee = types.MustMoney("40")
	require.NoError(t, svc.Update(ctx, e))
	assert.True(t, reg.FeePaid.Equal(types.MustMoney("25.50")))
}

func TestRegisterWrongOrg(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	e := makeEvent(t, svc, id.New(), "Retreat", 5)

	_, err := svc.Register(ctx, id.New(), e.ID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUnregister(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()
	userID := id.New()
	e := makeEvent(t, svc, orgID, "Retreat", 1)

	_, err := svc.Register(ctx, orgID, e.ID, userID)
	require.NoError(t, err)
	require.NoError(t, svc.Unregister(ctx, orgID, e.ID, userID))

	// The freed seat can be taken again.
	_, err = svc.Register(ctx, orgID, e.ID, id.New())
	require.NoError(t, err)
}

func TestListByRange(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	early := New(orgID, "Morning Prayer", base, base.Add(time.Hour))
	late := New(orgID, "Evening Study", base.Add(72*time.Hour), base.Add(74*time.Hour))
	require.NoError(t, svc.Create(ctx, early))
	require.NoError(t, svc.Create(ctx, late))

	events, err := svc.ListByRange(ctx, orgID, base.Add(-time.Hour), base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Morning Prayer", events[0].Title)

	_, err = svc.ListByRange(ctx, orgID, base, base)
	require.Error(t, err)
	_, err = svc.ListByRange(ctx, orgID, base.Add(time.Hour), base)
	require.Error(t, err)
}

func TestDeleteHidesEvent(t *testing.T) {
	svc, _ := newEventFixture()
	ctx := context.Background()
	orgID := id.New()
	e := makeEvent(t, svc, orgID, "Retreat", 5)

	require.NoError(t, svc.Delete(ctx, orgID, e.ID))
	_, err := svc.Get(ctx, orgID, e.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
