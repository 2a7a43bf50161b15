package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	errors "github.com/gfmoura/book-management/internal"
	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	"github.com/gfmoura/book-management/internal/core/events"
)

// Repository is the data-access surface of the assignment engine. Lookup
// methods exclude soft-deleted rows. Replace operations run inside the
// transaction opened by WithinTransaction and must serialize on the parent
// row so two concurrent edits cannot interleave a partial overwrite.
type Repository interface {
	WithinTransaction(fn func(Repository) error) error

	GetUserByID(id string) (*userDatamodel.User, error)
	GetRoleByID(id string) (*userDatamodel.Role, error)
	GetRoleByName(name string) (*userDatamodel.Role, error)
	GetRolesByIDs(ids []string) ([]*userDatamodel.Role, error)
	GetPermissionByName(name string) (*userDatamodel.Permission, error)
	GetPermissionByID(id string) (*userDatamodel.Permission, error)
	GetPermissionsByIDs(ids []string) ([]*userDatamodel.Permission, error)
	ListRoles() ([]*userDatamodel.Role, error)
	ListPermissions() ([]*userDatamodel.Permission, error)

	CreateRole(role *userDatamodel.Role) error
	CreatePermission(perm *userDatamodel.Permission) error
	ReplaceUserRoles(userID string, roleIDs []string, actorID string) error
	ReplaceRolePermissions(roleID string, permissionIDs []string, actorID string) error
	SaveRole(role *userDatamodel.Role) error
	SavePermission(perm *userDatamodel.Permission) error
	GetRoleByIDIncludingDeleted(id string) (*userDatamodel.Role, error)
	GetPermissionByIDIncludingDeleted(id string) (*userDatamodel.Permission, error)
}

// Limits carries the configured cardinality caps.
type Limits struct {
	MaxRolesPerUser       int
	MaxPermissionsPerRole int
}

type ServiceAPI interface {
	AssignRolesToUser(userID string, dto AssignRolesDTO, actorID string) error
	AssignPermissionsToRole(roleID string, dto AssignPermissionsDTO, actorID string) error
	CreateRole(dto CreateRoleDTO, actorID string) (*Role, error)
	CreatePermission(dto CreatePermissionDTO, actorID string) (*Permission, error)
	ListRoles() ([]Role, error)
	ListPermissions() ([]Permission, error)
	DeleteRole(id, actorID string) error
	RestoreRole(id string) error
	DeletePermission(id, actorID string) error
	RestorePermission(id string) error
}

type Service struct {
	repo   Repository
	limits Limits
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, limits Limits, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		limits: limits,
		bus:    bus,
		logger: logger,
	}
}

// AssignRolesToUser replaces the user's entire role set. Cardinality and
// duplicate validation happen before any persistence; a missing role id
// fails the whole call naming the ids that did not resolve.
func (s *Service) AssignRolesToUser(userID string, dto AssignRolesDTO, actorID string) error {
	if len(dto.RoleIDs) > s.limits.MaxRolesPerUser {
		return errors.NewValidationError(
			fmt.Sprintf("a user cannot have more than %d roles", s.limits.MaxRolesPerUser),
			errors.ErrCodeTooManyRoles)
	}
	if dups := duplicateIDs(dto.RoleIDs); len(dups) > 0 {
		return errors.NewValidationError(
			fmt.Sprintf("duplicate role ids: %s", strings.Join(dups, ", ")),
			errors.ErrCodeDuplicateIDs)
	}

	err := s.repo.WithinTransaction(func(r Repository) error {
		if _, err := r.GetUserByID(userID); err != nil {
			return errors.ErrUserNotFound
		}

		roles, err := r.GetRolesByIDs(dto.RoleIDs)
		if err != nil {
			return errors.NewInternalError("failed to resolve roles", err)
		}
		if missing := missingIDs(dto.RoleIDs, roleIDSet(roles)); len(missing) > 0 {
			return errors.NewMissingIDsError(
				fmt.Sprintf("Some roles not found: %s", strings.Join(missing, ", ")),
				errors.ErrCodeRolesNotFound, missing)
		}

		return r.ReplaceUserRoles(userID, dto.RoleIDs, actorID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("user roles replaced", "user_id", userID, "roles", len(dto.RoleIDs), "actor_id", actorID)
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewRolesAssignedEvent(userID, dto.RoleIDs, actorID))
	}
	return nil
}

// AssignPermissionsToRole is the symmetric full-replace against the
// configured permissions-per-role cap.
func (s *Service) AssignPermissionsToRole(roleID string, dto AssignPermissionsDTO, actorID string) error {
	if len(dto.PermissionIDs) > s.limits.MaxPermissionsPerRole {
		return errors.NewValidationError(
			fmt.Sprintf("a role cannot have more than %d permissions", s.limits.MaxPermissionsPerRole),
			errors.ErrCodeTooManyPerms)
	}
	if dups := duplicateIDs(dto.PermissionIDs); len(dups) > 0 {
		return errors.NewValidationError(
			fmt.Sprintf("duplicate permission ids: %s", strings.Join(dups, ", ")),
			errors.ErrCodeDuplicateIDs)
	}

	err := s.repo.WithinTransaction(func(r Repository) error {
		if _, err := r.GetRoleByID(roleID); err != nil {
			return errors.ErrRoleNotFound
		}

		perms, err := r.GetPermissionsByIDs(dto.PermissionIDs)
		if err != nil {
			return errors.NewInternalError("failed to resolve permissions", err)
		}
		if missing := missingIDs(dto.PermissionIDs, permissionIDSet(perms)); len(missing) > 0 {
			return errors.NewMissingIDsError(
				fmt.Sprintf("Some permissions not found: %s", strings.Join(missing, ", ")),
				errors.ErrCodePermissionsNotFound, missing)
		}

		return r.ReplaceRolePermissions(roleID, dto.PermissionIDs, actorID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("role permissions replaced", "role_id", roleID, "permissions", len(dto.PermissionIDs), "actor_id", actorID)
	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewPermissionsAssignedEvent(roleID, dto.PermissionIDs, actorID))
	}
	return nil
}

func (s *Service) CreateRole(dto CreateRoleDTO, actorID string) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var created *userDatamodel.Role
	err := s.repo.WithinTransaction(func(r Repository) error {
		if existing, err := r.GetRoleByName(dto.Name); err == nil && existing != nil {
			return errors.NewConflictError("Role name already exists", errors.ErrCodeDuplicateRole)
		}

		role := &userDatamodel.Role{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(dto.Name),
			Description: dto.Description,
			IsDefault:   dto.IsDefault,
		}
		if actorID != "" {
			role.CreatedBy = &actorID
		}
		if err := r.CreateRole(role); err != nil {
			return errors.NewInternalError("failed to create role", err)
		}
		created = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	role := FromRoleDataModel(created)
	return &role, nil
}

func (s *Service) CreatePermission(dto CreatePermissionDTO, actorID string) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var created *userDatamodel.Permission
	err := s.repo.WithinTransaction(func(r Repository) error {
		if existing, err := r.GetPermissionByName(dto.Name); err == nil && existing != nil {
			return errors.NewConflictError("Permission name already exists", errors.ErrCodeDuplicatePermission)
		}

		perm := &userDatamodel.Permission{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(dto.Name),
			Description: dto.Description,
			Resource:    strings.TrimSpace(dto.Resource),
			Action:      dto.Action,
		}
		if actorID != "" {
			perm.CreatedBy = &actorID
		}
		if err := r.CreatePermission(perm); err != nil {
			return errors.NewInternalError("failed to create permission", err)
		}
		created = perm
		return nil
	})
	if err != nil {
		return nil, err
	}

	perm := FromPermissionDataModel(created)
	return &perm, nil
}

func (s *Service) ListRoles() ([]Role, error) {
	rows, err := s.repo.ListRoles()
	if err != nil {
		return nil, errors.NewInternalError("failed to list roles", err)
	}
	roles := make([]Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromRoleDataModel(row))
	}
	return roles, nil
}

func (s *Service) ListPermissions() ([]Permission, error) {
	rows, err := s.repo.ListPermissions()
	if err != nil {
		return nil, errors.NewInternalError("failed to list permissions", err)
	}
	perms := make([]Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, FromPermissionDataModel(row))
	}
	return perms, nil
}

// DeleteRole soft-deletes a role. Association rows stay in place; the role
// simply stops contributing to effective permission resolution.
func (s *Service) DeleteRole(id, actorID string) error {
	return s.repo.WithinTransaction(func(r Repository) error {
		role, err := r.GetRoleByID(id)
		if err != nil {
			return errors.ErrRoleNotFound
		}
		if role.IsSystem {
			return errors.NewForbiddenError("System roles cannot be deleted", errors.ErrCodeSystemRole)
		}
		role.MarkDeleted(time.Now(), actorID)
		return r.SaveRole(role)
	})
}

func (s *Service) RestoreRole(id string) error {
	return s.repo.WithinTransaction(func(r Repository) error {
		role, err := r.GetRoleByIDIncludingDeleted(id)
		if err != nil {
			return errors.ErrRoleNotFound
		}
		role.ClearDeleted()
		return r.SaveRole(role)
	})
}

func (s *Service) DeletePermission(id, actorID string) error {
	return s.repo.WithinTransaction(func(r Repository) error {
		perm, err := r.GetPermissionByID(id)
		if err != nil {
			return errors.ErrPermNotFound
		}
		perm.MarkDeleted(time.Now(), actorID)
		return r.SavePermission(perm)
	})
}

func (s *Service) RestorePermission(id string) error {
	return s.repo.WithinTransaction(func(r Repository) error {
		perm, err := r.GetPermissionByIDIncludingDeleted(id)
		if err != nil {
			return errors.ErrPermNotFound
		}
		perm.ClearDeleted()
		return r.SavePermission(perm)
	})
}

func duplicateIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var dups []string
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
			continue
		}
		seen[id] = true
	}
	return dups
}

func missingIDs(requested []string, found map[string]bool) []string {
	var missing []string
	for _, id := range requested {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func roleIDSet(roles []*userDatamodel.Role) map[string]bool {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r.ID] = true
	}
	return set
}

func permissionIDSet(perms []*userDatamodel.Permission) map[string]bool {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p.ID] = true
	}
	return set
}
