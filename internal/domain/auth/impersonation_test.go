package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
)

func (f *authFixture) registerSuperadmin(t *testing.T, email string) *User {
	t.Helper()
	user := f.register(t, email, "correct-horse")
	user.IsSuperadmin = true
	require.NoError(t, f.users.Update(context.Background(), user))
	return user
}

func TestImpersonationRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin := f.registerSuperadmin(t, "admin@example.com")
	member := f.register(t, "member@example.com", "correct-horse")

	target, err := f.service.StartImpersonation(ctx, "", admin.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, target.ID)

	state, err := f.service.GetImpersonationState(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, member.ID, state.TargetUserID)
	assert.False(t, state.StartedAt.IsZero())

	require.NoError(t, f.service.StopImpersonation(ctx, "", admin.ID))

	state, err = f.service.GetImpersonationState(ctx, admin.ID)
	require.NoError(t, err)
	assert.False(t, state.Active)
}

func TestStartImpersonationRequiresSuperadmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	regular := f.register(t, "member@example.com", "correct-horse")
	other := f.register(t, "other@example.com", "correct-horse")

	_, err := f.service.StartImpersonation(ctx, "", regular.ID, other.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestStartImpersonationRejectsSelf(t *testing.T) {
	f := newAuthFixture(t)

	admin := f.registerSuperadmin(t, "admin@example.com")

	_, err := f.service.StartImpersonation(context.Background(), "", admin.ID, admin.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "yourself")
}

func TestStartImpersonationUnknownTarget(t *testing.T) {
	f := newAuthFixture(t)

	admin := f.registerSuperadmin(t, "admin@example.com")

	_, err := f.service.StartImpersonation(context.Background(), "", admin.ID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStopImpersonationIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin := f.registerSuperadmin(t, "admin@example.com")

	// No active impersonation: stop is a no-op.
	require.NoError(t, f.service.StopImpersonation(ctx, "", admin.ID))

	member := f.register(t, "member@example.com", "correct-horse")
	_, err := f.service.StartImpersonation(ctx, "", admin.ID, member.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.StopImpersonation(ctx, "", admin.ID))
	require.NoError(t, f.service.StopImpersonation(ctx, "", admin.ID))
}

func TestValidateImpersonation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin := f.registerSuperadmin(t, "admin@example.com")
	member := f.register(t, "member@example.com", "correct-horse")

	// No state yet: any claim is rejected.
	_, err := f.service.ValidateImpersonation(ctx, admin.ID, member.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))

	_, err = f.service.StartImpersonation(ctx, "", admin.ID, member.ID)
	require.NoError(t, err)

	target, err := f.service.ValidateImpersonation(ctx, admin.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, target.ID)

	// A claim for a different user than the persisted state is rejected.
	_, err = f.service.ValidateImpersonation(ctx, admin.ID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestImpersonationRefreshesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin := f.registerSuperadmin(t, "admin@example.com")
	member := f.register(t, "member@example.com", "correct-horse")

	session, err := f.service.SignIn(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	before := f.sessions.sessions[session.Token].ExpiresAt

	_, err = f.service.StartImpersonation(ctx, session.Token, admin.ID, member.ID)
	require.NoError(t, err)

	after := f.sessions.sessions[session.Token].ExpiresAt
	assert.False(t, after.Before(before))
}
