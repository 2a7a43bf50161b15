package postgres

import (
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	"github.com/gfmoura/book-management/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithinTransaction(fn func(rbac.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// lockForUpdate serializes concurrent assignment edits on the same parent
// row. SQLite (in-memory test database) has no row locks; its single-writer
// model gives the same guarantee.
func (r *Repository) lockForUpdate() *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

func (r *Repository) GetUserByID(id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.lockForUpdate().
		Where("id = ? AND deleted_at IS NULL", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetRoleByID(id string) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	err := r.lockForUpdate().
		Where("id = ? AND deleted_at IS NULL", id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) GetRoleByName(name string) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	err := r.db.
		Where("name = ? AND deleted_at IS NULL", name).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) GetRolesByIDs(ids []string) ([]*userDatamodel.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []*userDatamodel.Role
	err := r.db.
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *Repository) GetPermissionByName(name string) (*userDatamodel.Permission, error) {
	var perm userDatamodel.Permission
	err := r.db.
		Where("name = ? AND deleted_at IS NULL", name).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *Repository) GetPermissionByID(id string) (*userDatamodel.Permission, error) {
	var perm userDatamodel.Permission
	err := r.db.
		Where("id = ? AND deleted_at IS NULL", id).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *Repository) GetPermissionsByIDs(ids []string) ([]*userDatamodel.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var perms []*userDatamodel.Permission
	err := r.db.
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *Repository) ListRoles() ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.
		Where("deleted_at IS NULL").
		Order("name").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *Repository) ListPermissions() ([]*userDatamodel.Permission, error) {
	var perms []*userDatamodel.Permission
	err := r.db.
		Where("deleted_at IS NULL").
		Order("name").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *Repository) CreateRole(role *userDatamodel.Role) error {
	return r.db.Create(role).Error
}

func (r *Repository) CreatePermission(perm *userDatamodel.Permission) error {
	return r.db.Create(perm).Error
}

// ReplaceUserRoles overwrites the user's role set as delete + insert so the
// result matches the request exactly regardless of the previous state.
func (r *Repository) ReplaceUserRoles(userID string, roleIDs []string, actorID string) error {
	if err := r.db.
		Where("user_id = ?", userID).
		Delete(&userDatamodel.UserRole{}).Error; err != nil {
		return err
	}

	now := time.Now()
	for _, roleID := range roleIDs {
		row := userDatamodel.UserRole{
			UserID:    userID,
			RoleID:    roleID,
			CreatedAt: now,
		}
		if actorID != "" {
			row.CreatedBy = &actorID
		}
		if err := r.db.Create(&row).Error; err != nil {
			return err
		}
	}

	return r.touchUser(userID, actorID, now)
}

func (r *Repository) ReplaceRolePermissions(roleID string, permissionIDs []string, actorID string) error {
	if err := r.db.
		Where("role_id = ?", roleID).
		Delete(&userDatamodel.RolePermission{}).Error; err != nil {
		return err
	}

	now := time.Now()
	for _, permID := range permissionIDs {
		row := userDatamodel.RolePermission{
			RoleID:       roleID,
			PermissionID: permID,
			CreatedAt:    now,
		}
		if actorID != "" {
			row.CreatedBy = &actorID
		}
		if err := r.db.Create(&row).Error; err != nil {
			return err
		}
	}

	return r.touchRole(roleID, actorID, now)
}

func (r *Repository) touchUser(userID, actorID string, now time.Time) error {
	updates := map[string]interface{}{"updated_at": now}
	if actorID != "" {
		updates["updated_by"] = actorID
	}
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

func (r *Repository) touchRole(roleID, actorID string, now time.Time) error {
	updates := map[string]interface{}{"updated_at": now}
	if actorID != "" {
		updates["updated_by"] = actorID
	}
	return r.db.Model(&userDatamodel.Role{}).
		Where("id = ?", roleID).
		Updates(updates).Error
}

func (r *Repository) SaveRole(role *userDatamodel.Role) error {
	return r.db.Save(role).Error
}

func (r *Repository) SavePermission(perm *userDatamodel.Permission) error {
	return r.db.Save(perm).Error
}

func (r *Repository) GetRoleByIDIncludingDeleted(id string) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	if err := r.db.Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) GetPermissionByIDIncludingDeleted(id string) (*userDatamodel.Permission, error) {
	var perm userDatamodel.Permission
	if err := r.db.Where("id = ?", id).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}
