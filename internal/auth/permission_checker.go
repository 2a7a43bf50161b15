package auth

import "context"

// Permission names follow the resource:action convention, plus the "admin"
// catch-all.
const (
	PermAdmin             = "admin"
	PermManageUsers       = "users:update"
	PermManageRoles       = "roles:update"
	PermManagePermissions = "permissions:update"
	PermCreateBooks       = "books:create"
	PermUpdateBooks       = "books:update"
	PermDeleteBooks       = "books:delete"
)

type PermissionChecker interface {
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	CanManageUsers(userPermissions []string) bool
	CanManageRoles(userPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission, PermAdmin}), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageUsers(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageUsers, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageRoles(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageRoles, PermAdmin})
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}
