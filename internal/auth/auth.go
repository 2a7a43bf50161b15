package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// Claims is the JWT payload. The subject carries the user id; username is
// duplicated as a convenience claim for log correlation.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the resolved caller attached to request context after token
// verification. It never carries the password hash.
type Identity struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
}

func (i *Identity) HasPermission(permission string) bool {
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (i *Identity) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range i.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (i *Identity) IsAdmin() bool {
	return i.HasPermission("admin")
}

func UserFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(ContextUserKey).(*Identity)
	return identity, ok
}

func ContextWithUser(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ContextUserKey, identity)
}

// AuthToken is the login response body.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SecurityStatus is the administrative view of an account's lockout state.
type SecurityStatus struct {
	IsLocked       bool       `json:"is_locked"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsVerified     bool       `json:"is_verified"`
}

// TokenGenerator creates and validates access tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID string, username string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ServiceAPI is the surface consumed by the HTTP layer.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthToken, error)
	VerifyToken(tokenString string) (*Identity, error)
	UnlockAccount(userID, actorID string) error
	GetSecurityStatus(userID string) (*SecurityStatus, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserNotFound       = errors.New("user not found")
)
