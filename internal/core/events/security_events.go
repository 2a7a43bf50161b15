package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded  = "auth.login_succeeded"
	EventTypeLoginFailed     = "auth.login_failed"
	EventTypeAccountLocked   = "auth.account_locked"
	EventTypeAccountUnlocked = "auth.account_unlocked"
	EventTypeRolesAssigned   = "rbac.roles_assigned"
	EventTypePermsAssigned   = "rbac.permissions_assigned"
)

type LoginSucceededEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func NewLoginSucceededEvent(userID, username string) *LoginSucceededEvent {
	return &LoginSucceededEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLoginSucceeded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
		},
		UserID:   userID,
		Username: username,
	}
}

// LoginFailedEvent carries the attempt counter so audit consumers can see
// progress toward lockout. The plaintext identifier is deliberately absent
// when the user was not resolved.
type LoginFailedEvent struct {
	BaseEvent
	UserID         string `json:"user_id,omitempty"`
	FailedAttempts int    `json:"failed_attempts"`
}

func NewLoginFailedEvent(userID string, failedAttempts int) *LoginFailedEvent {
	return &LoginFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLoginFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":         userID,
				"failed_attempts": failedAttempts,
			},
		},
		UserID:         userID,
		FailedAttempts: failedAttempts,
	}
}

type AccountLockedEvent struct {
	BaseEvent
	UserID      string    `json:"user_id"`
	LockedUntil time.Time `json:"locked_until"`
}

func NewAccountLockedEvent(userID string, lockedUntil time.Time) *AccountLockedEvent {
	return &AccountLockedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAccountLocked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":      userID,
				"locked_until": lockedUntil,
			},
		},
		UserID:      userID,
		LockedUntil: lockedUntil,
	}
}

type AccountUnlockedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	ActorID string `json:"actor_id"`
}

func NewAccountUnlockedEvent(userID, actorID string) *AccountUnlockedEvent {
	return &AccountUnlockedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAccountUnlocked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"actor_id": actorID,
			},
		},
		UserID:  userID,
		ActorID: actorID,
	}
}

type RolesAssignedEvent struct {
	BaseEvent
	UserID  string   `json:"user_id"`
	RoleIDs []string `json:"role_ids"`
	ActorID string   `json:"actor_id"`
}

func NewRolesAssignedEvent(userID string, roleIDs []string, actorID string) *RolesAssignedEvent {
	return &RolesAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRolesAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"role_ids": roleIDs,
				"actor_id": actorID,
			},
		},
		UserID:  userID,
		RoleIDs: roleIDs,
		ActorID: actorID,
	}
}

type PermissionsAssignedEvent struct {
	BaseEvent
	RoleID        string   `json:"role_id"`
	PermissionIDs []string `json:"permission_ids"`
	ActorID       string   `json:"actor_id"`
}

func NewPermissionsAssignedEvent(roleID string, permissionIDs []string, actorID string) *PermissionsAssignedEvent {
	return &PermissionsAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermsAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_id":        roleID,
				"permission_ids": permissionIDs,
				"actor_id":       actorID,
			},
		},
		RoleID:        roleID,
		PermissionIDs: permissionIDs,
		ActorID:       actorID,
	}
}
