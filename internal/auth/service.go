package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	"github.com/gfmoura/book-management/internal/core/events"
)

// Repository is the data-access surface the authenticator needs. All
// methods exclude soft-deleted users. Implementations must serialize
// GetUserForLogin against concurrent attempts on the same row so counter
// increments are not lost.
type Repository interface {
	WithinTransaction(fn func(Repository) error) error
	GetUserForLogin(identifier string) (*userDatamodel.User, error)
	SaveLoginState(u *userDatamodel.User) error
	GetUserByID(id string) (*userDatamodel.User, error)
	GetUserPermissions(userID string) ([]string, error)
}

// Service is the authenticator: it orchestrates lookup, lockout check,
// password verification and counter mutation inside one transaction per
// attempt.
type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	hasher         *PasswordHasher
	lockout        LockoutPolicy
	bus            *events.EventBus
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(repo Repository, tokenGen TokenGenerator, hasher *PasswordHasher, lockout LockoutPolicy, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		hasher:         hasher,
		lockout:        lockout,
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

// Authenticate validates credentials and returns a signed token. The
// returned error never distinguishes unknown user, locked or inactive
// account, or wrong password beyond what ServiceAPI documents; callers on
// the public surface must collapse everything to invalid credentials.
func (s *Service) Authenticate(dto LoginDTO) (AuthToken, error) {
	if err := dto.Validate(); err != nil {
		return AuthToken{}, err
	}

	now := s.now()

	var u *userDatamodel.User
	var authErr error
	var lockedByThisAttempt bool

	err := s.repo.WithinTransaction(func(r Repository) error {
		var lookupErr error
		u, lookupErr = r.GetUserForLogin(dto.Username)
		if lookupErr != nil {
			s.logger.Warn("authentication failed: user not found", "identifier", dto.Username)
			authErr = ErrInvalidCredentials
			return nil
		}

		// lockout check happens before password verification so a locked
		// account never pays the hash cost
		if s.lockout.IsLocked(u, now) {
			s.logger.Warn("authentication failed: account locked", "user_id", u.ID, "locked_until", u.LockedUntil)
			authErr = ErrAccountLocked
			return nil
		}

		if !u.IsActive {
			s.logger.Warn("authentication failed: account inactive", "user_id", u.ID)
			authErr = ErrUserInactive
			return r.SaveLoginState(u)
		}

		if !s.hasher.Verify(dto.Password, u.PasswordHash) {
			s.lockout.RecordFailure(u, now)
			lockedByThisAttempt = u.LockedUntil != nil
			s.logger.Warn("authentication failed: password mismatch",
				"user_id", u.ID,
				"failed_attempts", u.FailedLoginAttempts,
				"locked", lockedByThisAttempt)
			authErr = ErrInvalidCredentials
			return r.SaveLoginState(u)
		}

		s.lockout.RecordSuccess(u, now)
		return r.SaveLoginState(u)
	})
	if err != nil {
		// persistence failure rolled back any counter mutation
		return AuthToken{}, fmt.Errorf("authentication attempt: %w", err)
	}

	if authErr != nil {
		s.publishFailure(u, lockedByThisAttempt)
		return AuthToken{}, authErr
	}

	tokenString, expiresAt, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return AuthToken{}, fmt.Errorf("generate access token: %w", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewLoginSucceededEvent(u.ID, u.Username))
	}

	return AuthToken{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
	}, nil
}

func (s *Service) publishFailure(u *userDatamodel.User, locked bool) {
	if s.bus == nil {
		return
	}
	userID := ""
	attempts := 0
	if u != nil {
		userID = u.ID
		attempts = u.FailedLoginAttempts
	}
	_ = s.bus.Publish(context.Background(), events.NewLoginFailedEvent(userID, attempts))
	if locked && u != nil && u.LockedUntil != nil {
		_ = s.bus.Publish(context.Background(), events.NewAccountLockedEvent(u.ID, *u.LockedUntil))
	}
}

// VerifyToken resolves a bearer token back to a live identity with its
// effective permissions. It performs no mutation.
func (s *Service) VerifyToken(tokenString string) (*Identity, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(claims.Subject)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}

	perms, err := s.repo.GetUserPermissions(u.ID)
	if err != nil {
		return nil, fmt.Errorf("load user permissions: %w", err)
	}

	return &Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Permissions: perms,
	}, nil
}

// UnlockAccount clears the lockout state administratively.
func (s *Service) UnlockAccount(userID, actorID string) error {
	err := s.repo.WithinTransaction(func(r Repository) error {
		u, err := r.GetUserByID(userID)
		if err != nil {
			return ErrUserNotFound
		}
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		if actorID != "" {
			u.UpdatedBy = &actorID
		}
		return r.SaveLoginState(u)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account unlocked", "user_id", userID, "actor_id", actorID)
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewAccountUnlockedEvent(userID, actorID))
	}
	return nil
}

// GetSecurityStatus returns the administrative lockout view. It never
// includes the password hash and makes no mutation; an expired lock simply
// reads as unlocked.
func (s *Service) GetSecurityStatus(userID string) (*SecurityStatus, error) {
	u, err := s.repo.GetUserByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	isLocked := u.LockedUntil != nil && now.Before(*u.LockedUntil)

	return &SecurityStatus{
		IsLocked:       isLocked,
		FailedAttempts: u.FailedLoginAttempts,
		LockedUntil:    u.LockedUntil,
		LastLogin:      u.LastLogin,
		IsActive:       u.IsActive,
		IsVerified:     u.IsVerified,
	}, nil
}

// RBACAuthorization builds the route-level permission guard backed by the
// default checker.
func (s *Service) RBACAuthorization() *RBACAuthorization {
	return NewRBACAuthorization(NewPermissionChecker(), s.logger)
}
