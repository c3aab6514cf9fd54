package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/audit"
	"parishdesk/pkg/logger"
)

// Metadata keys stored in the superadmin's attributes blob while an
// impersonation is active.
const (
	attrImpersonating  = "impersonating"
	attrOriginalUser   = "original_user"
	attrImpersonatedAt = "impersonation_started_at"
)

// ImpersonationState describes an active impersonation for an actor.
type ImpersonationState struct {
	Active       bool
	TargetUserID id.ID
	StartedAt    time.Time
}

// StartImpersonation switches a superadmin to act as another user. The state
// is persisted in the actor's attributes, re-read to verify the write landed,
// audited, and finally reflected into the session.
func (s *Service) StartImpersonation(ctx context.Context, sessionToken string, actorID, targetID id.ID) (*User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperadmin {
		return nil, apperror.NewForbidden("impersonation requires superadmin")
	}
	if actorID == targetID {
		return nil, apperror.NewValidation("cannot impersonate yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", targetID)
		}
		return nil, err
	}

	startedAt := time.Now().UTC()
	actor.Attributes.Set(attrImpersonating, target.ID.String())
	actor.Attributes.Set(attrOriginalUser, actor.ID.String())
	actor.Attributes.Set(attrImpersonatedAt, startedAt.Format(time.RFC3339))

	if err := s.userRepo.UpdateAttributes(ctx, actor.ID, actor.Attributes); err != nil {
		return nil, fmt.Errorf("persist impersonation state: %w", err)
	}

	// Verify the write landed before handing out an impersonated identity.
	if err := s.verifyImpersonationState(ctx, actor.ID, target.ID.String()); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   target.ID.String(),
		Action:     audit.ActionImpersonateStart,
		ActorID:    actor.ID.String(),
		TargetID:   target.ID.String(),
		Changes: mustJSON(map[string]any{
			"target_user_id": target.ID.String(),
			"started_at":     startedAt.Format(time.RFC3339),
		}),
	})

	s.refreshSession(ctx, sessionToken)

	logger.Info(ctx, "impersonation started",
		"actor_id", actor.ID.String(),
		"target_id", target.ID.String(),
	)

	return target, nil
}

// StopImpersonation clears the actor's impersonation state.
func (s *Service) StopImpersonation(ctx context.Context, sessionToken string, actorID id.ID) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	targetID := actor.Attributes.GetString(attrImpersonating)
	if targetID == "" {
		// Nothing active; stopping is idempotent.
		return nil
	}

	actor.Attributes.Delete(attrImpersonating)
	actor.Attributes.Delete(attrOriginalUser)
	actor.Attributes.Delete(attrImpersonatedAt)

	if err := s.userRepo.UpdateAttributes(ctx, actor.ID, actor.Attributes); err != nil {
		return fmt.Errorf("clear impersonation state: %w", err)
	}

	if err := s.verifyImpersonationState(ctx, actor.ID, ""); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   targetID,
		Action:     audit.ActionImpersonateStop,
		ActorID:    actor.ID.String(),
	})

	s.refreshSession(ctx, sessionToken)

	logger.Info(ctx, "impersonation stopped",
		"actor_id", actor.ID.String(),
		"target_id", targetID,
	)

	return nil
}

// GetImpersonationState reads the actor's current impersonation state.
func (s *Service) GetImpersonationState(ctx context.Context, actorID id.ID) (*ImpersonationState, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	raw := actor.Attributes.GetString(attrImpersonating)
	if raw == "" {
		return &ImpersonationState{}, nil
	}

	targetID, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("corrupt impersonation state: %w", err))
	}

	state := &ImpersonationState{
		Active:       true,
		TargetUserID: targetID,
		StartedAt:    actor.Attributes.GetTime(attrImpersonatedAt),
	}
	return state, nil
}

// ValidateImpersonation checks that a claimed impersonation matches the
// persisted state. Called on every request carrying the impersonation cookie.
func (s *Service) ValidateImpersonation(ctx context.Context, actorID, claimedTargetID id.ID) (*User, error) {
	state, err := s.GetImpersonationState(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !state.Active || state.TargetUserID != claimedTargetID {
		return nil, apperror.NewUnauthorized("impersonation state mismatch")
	}

	target, err := s.userRepo.GetByID(ctx, claimedTargetID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("impersonated user no longer exists")
		}
		return nil, err
	}
	return target, nil
}

// verifyImpersonationState re-reads the actor and fails the whole operation
// when the stored value does not match what we just wrote.
func (s *Service) verifyImpersonationState(ctx context.Context, actorID id.ID, want string) error {
	fresh, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("verify impersonation state: %w", err)
	}
	if got := fresh.Attributes.GetString(attrImpersonating); got != want {
		return apperror.NewInternal(
			fmt.Errorf("impersonation state verification failed: got %q, want %q", got, want),
		)
	}
	return nil
}

// refreshSession extends the session so identity changes take effect without
// a re-login. Best effort.
func (s *Service) refreshSession(ctx context.Context, sessionToken string) {
	if sessionToken == "" {
		return
	}
	if err := s.sessions.Refresh(ctx, sessionToken, s.config.SessionTTL); err != nil {
		logger.Warn(ctx, "refresh session after impersonation change", "error", err)
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
