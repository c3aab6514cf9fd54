package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
)

// --- in-memory fakes ---

type memUserRepo struct {
	users map[id.ID]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[id.ID]*User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *memUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memUserRepo) Update(_ context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) UpdateAttributes(_ context.Context, userID id.ID, attrs entity.Attributes) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID)
	}
	u.Attributes = attrs
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, userID id.ID) error {
	now := time.Now()
	if u, ok := r.users[userID]; ok {
		u.DeletedAt = &now
	}
	return nil
}

func (r *memUserRepo) List(_ context.Context, _ string, _, _ int) ([]*User, int64, error) {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

type memTokenRepo struct {
	tokens map[string]*Token // by hash
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]*Token{}}
}

func (r *memTokenRepo) Create(_ context.Context, token *Token) error {
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *memTokenRepo) GetByHash(_ context.Context, hash string) (*Token, error) {
	t, ok := r.tokens[hash]
	if !ok {
		return nil, apperror.NewNotFound("token", hash)
	}
	return t, nil
}

func (r *memTokenRepo) MarkUsed(_ context.Context, tokenID id.ID) error {
	for _, t := range r.tokens {
		if t.ID == tokenID {
			if t.UsedAt != nil {
				return apperror.NewConflict("token already used")
			}
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return apperror.NewNotFound("token", tokenID)
}

func (r *memTokenRepo) DeleteExpired(_ context.Context) (int64, error) { return 0, nil }

type memSessionStore struct {
	sessions map[string]*Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*Session{}}
}

func (s *memSessionStore) Create(_ context.Context, session *Session) error {
	s.sessions[session.Token] = session
	return nil
}

func (s *memSessionStore) Get(_ context.Context, token string) (*Session, error) {
	sess, ok := s.sessions[token]
	if !ok || sess.Expired() {
		return nil, apperror.NewUnauthorized("session not found")
	}
	return sess, nil
}

func (s *memSessionStore) Refresh(ctx context.Context, token string, ttl time.Duration) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	sess.ExpiresAt = time.Now().Add(ttl)
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type memMembershipRepo struct {
	byID map[id.ID]*membership.Membership
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{byID: map[id.ID]*membership.Membership{}}
}

func (r *memMembershipRepo) Create(_ context.Context, m *membership.Membership) error {
	r.byID[m.ID] = m
	return nil
}

func (r *memMembershipRepo) GetByID(_ context.Context, membershipID id.ID) (*membership.Membership, error) {
	m, ok := r.byID[membershipID]
	if !ok {
		return nil, apperror.NewNotFound("membership", membershipID)
	}
	return m, nil
}

func (r *memMembershipRepo) GetByUserAndOrg(_ context.Context, userID, orgID id.ID) (*membership.Membership, error) {
	for _, m := range r.byID {
		if m.UserID == userID && m.OrganizationID == orgID {
			return m, nil
		}
	}
	return nil, apperror.NewNotFound("membership", userID)
}

func (r *memMembershipRepo) ListByOrg(_ context.Context, orgID id.ID) ([]*membership.Membership, error) {
	var out []*membership.Membership
	for _, m := range r.byID {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) ListByUser(_ context.Context, userID id.ID) ([]*membership.Membership, error) {
	var out []*membership.Membership
	for _, m := range r.byID {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembershipRepo) Update(_ context.Context, m *membership.Membership) error {
	r.byID[m.ID] = m
	return nil
}

func (r *memMembershipRepo) Delete(_ context.Context, membershipID id.ID) error {
	delete(r.byID, membershipID)
	return nil
}

type memOrgRepo struct {
	bySlug map[string]*organization.Organization
}

func (r *memOrgRepo) Create(_ context.Context, org *organization.Organization) error {
	r.bySlug[org.Slug] = org
	return nil
}

func (r *memOrgRepo) GetByID(_ context.Context, orgID id.ID) (*organization.Organization, error) {
	for _, org := range r.bySlug {
		if org.ID == orgID {
			return org, nil
		}
	}
	return nil, apperror.NewNotFound("organization", orgID)
}

func (r *memOrgRepo) GetBySlug(_ context.Context, slug string) (*organization.Organization, error) {
	org, ok := r.bySlug[slug]
	if !ok {
		return nil, apperror.NewNotFound("organization", slug)
	}
	return org, nil
}

func (r *memOrgRepo) Update(_ context.Context, org *organization.Organization) error {
	r.bySlug[org.Slug] = org
	return nil
}

func (r *memOrgRepo) Delete(_ context.Context, orgID id.ID) error {
	for slug, org := range r.bySlug {
		if org.ID == orgID {
			delete(r.bySlug, slug)
		}
	}
	return nil
}

func (r *memOrgRepo) List(_ context.Context, _ organization.ListFilter) (organization.ListResult, error) {
	return organization.ListResult{}, nil
}

// --- fixture ---

type authFixture struct {
	users       *memUserRepo
	tokens      *memTokenRepo
	sessions    *memSessionStore
	memberships *memMembershipRepo
	service     *Service
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	sessions := newMemSessionStore()
	membershipRepo := newMemMembershipRepo()
	orgRepo := &memOrgRepo{bySlug: map[string]*organization.Organization{}}
	memberships := membership.NewService(membershipRepo, orgRepo, nil)

	cfg := DefaultServiceConfig()
	service := NewService(users, tokens, sessions, memberships, NewJWTService(DefaultJWTConfig("test-secret")), nil, cfg)

	return &authFixture{
		users:       users,
		tokens:      tokens,
		sessions:    sessions,
		memberships: membershipRepo,
		service:     service,
	}
}

func (f *authFixture) register(t *testing.T, email, password string) *User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

// --- tests ---

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "Pastor@Example.COM ", "correct-horse")
	assert.Equal(t, "pastor@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperadmin)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err := f.service.Register(ctx, RegisterRequest{Email: "pastor@example.com", Password: "another-pass"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	_, err = f.service.Register(ctx, RegisterRequest{Email: "short@example.com", Password: "short"})
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "deacon@example.com", "correct-horse")

	session, err := f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	stored, err := f.sessions.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestSignInUniformFailureMessage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "deacon@example.com", "correct-horse")

	// A bad password and an unknown email must be indistinguishable.
	_, badPass := f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "wrong"})
	_, badEmail := f.service.SignIn(ctx, LoginRequest{Email: "nobody@example.com", Password: "wrong"})

	require.Error(t, badPass)
	require.Error(t, badEmail)
	assert.Equal(t, badPass.Error(), badEmail.Error())
	assert.True(t, apperror.IsUnauthorized(badPass))
	assert.True(t, apperror.IsUnauthorized(badEmail))
}

func TestSignInLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "deacon@example.com", "correct-horse")

	for i := 0; i < f.service.config.MaxLoginAttempts; i++ {
		_, err := f.service.SignIn(ctx, LoginRequest{Email: user.Email, Password: "wrong"})
		require.Error(t, err)
	}

	// Even the right password is rejected while locked.
	_, err := f.service.SignIn(ctx, LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestSignOutIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "deacon@example.com", "correct-horse")
	session, err := f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.service.SignOut(ctx, session.Token))
	_, err = f.sessions.Get(ctx, session.Token)
	require.Error(t, err)

	// Second sign-out of the same token is a no-op.
	require.NoError(t, f.service.SignOut(ctx, session.Token))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "deacon@example.com", "correct-horse")

	plain, err := f.service.ForgotPassword(ctx, "deacon@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, plain)

	require.NoError(t, f.service.ResetPassword(ctx, plain, "new-password-1"))

	_, err = f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "correct-horse"})
	require.Error(t, err)
	_, err = f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "new-password-1"})
	require.NoError(t, err)

	// The token is single-use.
	err = f.service.ResetPassword(ctx, plain, "yet-another-pass")
	require.Error(t, err)
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	f := newAuthFixture(t)

	plain, err := f.service.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestAcceptInviteNewUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	inviter := f.register(t, "pastor@example.com", "correct-horse")
	orgID := id.New()

	plain, err := f.service.CreateInvite(ctx, "newcomer@example.com", orgID, security.RoleLeader, inviter.ID)
	require.NoError(t, err)
	require.NotEmpty(t, plain)

	user, err := f.service.AcceptInvite(ctx, AcceptInviteRequest{
		Token:     plain,
		Password:  "welcome-aboard",
		FirstName: "New",
		LastName:  "Comer",
	})
	require.NoError(t, err)
	assert.Equal(t, "newcomer@example.com", user.Email)

	memberships, err := f.memberships.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, orgID, memberships[0].OrganizationID)
	assert.Equal(t, security.RoleLeader, memberships[0].Role)

	// The invite is single-use.
	_, err = f.service.AcceptInvite(ctx, AcceptInviteRequest{Token: plain, Password: "welcome-aboard"})
	require.Error(t, err)
}

func TestAcceptInviteExistingUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	inviter := f.register(t, "pastor@example.com", "correct-horse")
	existing := f.register(t, "member@example.com", "correct-horse")
	orgID := id.New()

	plain, err := f.service.CreateInvite(ctx, "member@example.com", orgID, security.RoleMember, inviter.ID)
	require.NoError(t, err)

	// Existing accounts only supply the token.
	user, err := f.service.AcceptInvite(ctx, AcceptInviteRequest{Token: plain})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)

	user := f.register(t, "deacon@example.com", "correct-horse")
	updated, err := f.service.UpdateProfile(context.Background(), user.ID, "  Jordan ", "Rivera")
	require.NoError(t, err)
	assert.Equal(t, "Jordan", updated.FirstName)
	assert.Equal(t, "Rivera", updated.LastName)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.register(t, "deacon@example.com", "correct-horse")

	err := f.service.ChangePassword(ctx, user.ID, "wrong", "new-password-1")
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))

	err = f.service.ChangePassword(ctx, user.ID, "correct-horse", "short")
	require.Error(t, err)

	require.NoError(t, f.service.ChangePassword(ctx, user.ID, "correct-horse", "new-password-1"))
	_, err = f.service.SignIn(ctx, LoginRequest{Email: "deacon@example.com", Password: "new-password-1"})
	require.NoError(t, err)
}

func TestCreateInviteRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)

	inviter := f.register(t, "pastor@example.com", "correct-horse")
	_, err := f.service.CreateInvite(context.Background(), "x@example.com", id.New(), security.Role("pope"), inviter.ID)
	require.Error(t, err)
}
