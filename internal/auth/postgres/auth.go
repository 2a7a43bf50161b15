package postgres

import (
	"errors"
	"time"

	"github.com/gfmoura/book-management/internal/auth"
	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithinTransaction runs fn with a repository bound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithinTransaction(fn func(auth.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// lockForUpdate serializes concurrent login attempts on the same user row.
// SQLite (used by the in-memory test database) has no row locks; its
// single-writer model gives the same guarantee.
func (r *Repository) lockForUpdate() *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

// GetUserForLogin resolves a non-deleted user by username or email and
// takes the row lock for the enclosing transaction.
func (r *Repository) GetUserForLogin(identifier string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.lockForUpdate().
		Where("(username = ? OR email = ?) AND deleted_at IS NULL", identifier, identifier).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SaveLoginState persists the lockout counters, lock expiry and last_login
// for the row fetched by GetUserForLogin.
func (r *Repository) SaveLoginState(u *userDatamodel.User) error {
	return r.db.Model(&userDatamodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"failed_login_attempts": u.FailedLoginAttempts,
			"locked_until":          u.LockedUntil,
			"last_login":            u.LastLogin,
			"updated_by":            u.UpdatedBy,
			"updated_at":            time.Now(),
		}).Error
}

func (r *Repository) GetUserByID(id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.
		Where("id = ? AND deleted_at IS NULL", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserPermissions returns the effective permission names for a user.
// Soft-deleted roles and permissions are excluded here so a suspended role
// stops granting access without losing its association rows.
func (r *Repository) GetUserPermissions(userID string) ([]string, error) {
	query := `SELECT DISTINCT p.name
	          FROM permissions p
	          JOIN role_permissions rp ON rp.permission_id = p.id
	          JOIN roles ro ON ro.id = rp.role_id
	          JOIN user_roles ur ON ur.role_id = ro.id
	          WHERE ur.user_id = ?
	            AND p.deleted_at IS NULL
	            AND ro.deleted_at IS NULL`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}

	return permissions, rows.Err()
}
