package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/audit"
	"parishdesk/internal/domain/membership"
	"parishdesk/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	SessionTTL        time.Duration
	ResetTokenTTL     time.Duration
	InviteTokenTTL    time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		SessionTTL:        24 * time.Hour,
		ResetTokenTTL:     time.Hour,
		InviteTokenTTL:    7 * 24 * time.Hour,
	}
}

// Service provides authentication and account logic.
type Service struct {
	userRepo    UserRepository
	tokenRepo   TokenRepository
	sessions    SessionStore
	memberships *membership.Service
	jwtService  *JWTService
	audit       audit.Logger
	config      ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	sessions SessionStore,
	memberships *membership.Service,
	jwtService *JWTService,
	auditLog audit.Logger,
	config ServiceConfig,
) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		sessions:    sessions,
		memberships: memberships,
		jwtService:  jwtService,
		audit:       auditLog,
		config:      config,
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := s.validatePassword(req.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(email, string(passwordHash))
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same error as a bad password: do not leak which emails exist.
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if updErr := s.userRepo.Update(ctx, user); updErr != nil {
			logger.Warn(ctx, "record failed login", "error", updErr)
		}
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	user.RecordSuccessfulLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "record successful login", "error", err)
	}

	session, err := NewSession(user, s.config.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	_ = s.audit.Log(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   user.ID.String(),
		Action:     audit.ActionSignIn,
		ActorID:    user.ID.String(),
	})

	return session, nil
}

// SignOut destroys the session.
func (s *Service) SignOut(ctx context.Context, token string) error {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		// Already gone; sign-out is idempotent.
		return nil
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	_ = s.audit.Log(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   session.UserID.String(),
		Action:     audit.ActionSignOut,
		ActorID:    session.UserID.String(),
	})

	return nil
}

// GetSession loads a live session by token.
func (s *Service) GetSession(ctx context.Context, token string) (*Session, error) {
	return s.sessions.Get(ctx, token)
}

// GetUser loads a user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers returns users matching the search string, with the total count.
func (s *Service) ListUsers(ctx context.Context, search string, limit, offset int) ([]*User, int64, error) {
	return s.userRepo.List(ctx, search, limit, offset)
}

// UpdateProfile changes a user's display fields.
func (s *Service) UpdateProfile(ctx context.Context, userID id.ID, firstName, lastName string) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(firstName)
	user.LastName = strings.TrimSpace(lastName)
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   user.ID.String(),
		Action:     audit.ActionUpdate,
		ActorID:    user.ID.String(),
	})

	return user, nil
}

// ChangePassword verifies the current password before setting a new one.
// Existing sessions stay valid: the store keys sessions by token and cannot
// enumerate a user's sessions to revoke them.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("current password is incorrect")
	}
	if err := s.validatePassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	return s.userRepo.Update(ctx, user)
}

// IssueAccessToken creates a JWT for API clients.
func (s *Service) IssueAccessToken(ctx context.Context, userID id.ID) (string, time.Time, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.jwtService.GenerateAccessToken(user)
}

// ForgotPassword creates a single-use reset token. The plaintext token is
// returned for the mailer; only its hash is stored. Unknown emails succeed
// silently so the endpoint cannot be used to probe accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	plain, hash, err := newSingleUseToken()
	if err != nil {
		return "", err
	}

	token := &Token{
		ID:        id.New(),
		UserID:    &user.ID,
		Email:     user.Email,
		Purpose:   TokenPurposeReset,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.config.ResetTokenTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}

	return plain, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, plainToken, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	token, err := s.lookupToken(ctx, plainToken, TokenPurposeReset)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, *token.UserID)
	if err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(passwordHash)
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokenRepo.MarkUsed(ctx, token.ID)
}

// CreateInvite issues an invite token granting a role in an organization.
func (s *Service) CreateInvite(ctx context.Context, email string, orgID id.ID, role security.Role, invitedBy id.ID) (string, error) {
	if !security.ValidRole(role) {
		return "", apperror.NewValidation("invalid role").WithDetail("value", string(role))
	}

	plain, hash, err := newSingleUseToken()
	if err != nil {
		return "", err
	}

	token := &Token{
		ID:             id.New(),
		UserID:         &invitedBy,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Purpose:        TokenPurposeInvite,
		TokenHash:      hash,
		OrganizationID: &orgID,
		Role:           string(role),
		ExpiresAt:      time.Now().UTC().Add(s.config.InviteTokenTTL),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("create invite token: %w", err)
	}

	return plain, nil
}

// AcceptInvite consumes an invite token, creating the account when needed,
// and attaches the membership the invite grants.
func (s *Service) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*User, error) {
	token, err := s.lookupToken(ctx, req.Token, TokenPurposeInvite)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, token.Email)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		// New account: the invite payload needs a password.
		user, err = s.Register(ctx, RegisterRequest{
			Email:     token.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			return nil, err
		}
	}

	m := membership.New(*token.OrganizationID, user.ID, security.Role(token.Role))
	if token.UserID != nil {
		m.InvitedBy = token.UserID
	}
	if err := s.memberships.Add(ctx, m); err != nil {
		return nil, err
	}

	if err := s.tokenRepo.MarkUsed(ctx, token.ID); err != nil {
		return nil, err
	}

	return user, nil
}

// lookupToken resolves a plaintext token to a valid stored token.
func (s *Service) lookupToken(ctx context.Context, plain string, purpose TokenPurpose) (*Token, error) {
	token, err := s.tokenRepo.GetByHash(ctx, hashToken(plain))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("invalid or expired token")
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token.Purpose != purpose || !token.IsValid() {
		return nil, apperror.NewValidation("invalid or expired token")
	}
	// Constant-time re-check; GetByHash already matched but this keeps the
	// comparison out of SQL semantics.
	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hashToken(plain))) != 1 {
		return nil, apperror.NewValidation("invalid or expired token")
	}
	return token, nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	return nil
}

// newSingleUseToken returns (plaintext, sha256-hex hash).
func newSingleUseToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	plain := hex.EncodeToString(buf)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
