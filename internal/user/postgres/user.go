package postgres

import (
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	"github.com/gfmoura/book-management/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithinTransaction(fn func(user.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) GetByID(id string) (*userDatamodel.User, error) {
	return r.getOne("id = ?", id)
}

func (r *Repository) GetByUsername(username string) (*userDatamodel.User, error) {
	return r.getOne("username = ?", username)
}

func (r *Repository) GetByEmail(email string) (*userDatamodel.User, error) {
	return r.getOne("email = ?", email)
}

func (r *Repository) getOne(cond string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.
		Where(cond, arg).
		Where("deleted_at IS NULL").
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(u *userDatamodel.User) error {
	return r.db.Create(u).Error
}

func (r *Repository) Save(u *userDatamodel.User) error {
	return r.db.Save(u).Error
}

func (r *Repository) GetDefaultRoles() ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.
		Where("is_default = ? AND deleted_at IS NULL", true).
		Find(&roles).Error
	return roles, err
}

func (r *Repository) AddUserRole(userID, roleID string, actorID string) error {
	row := userDatamodel.UserRole{
		UserID:    userID,
		RoleID:    roleID,
		CreatedAt: time.Now(),
	}
	if actorID != "" {
		row.CreatedBy = &actorID
	}
	return r.db.Create(&row).Error
}

func (r *Repository) GetUserRoles(userID string) ([]string, error) {
	query := `SELECT ro.name
	          FROM roles ro
	          JOIN user_roles ur ON ur.role_id = ro.id
	          WHERE ur.user_id = ?
	            AND ro.deleted_at IS NULL
	          ORDER BY ro.name`
	return r.scanNames(query, userID)
}

// GetUserPermissions mirrors the effective-permission resolution used at
// login: soft-deleted roles and permissions do not contribute.
func (r *Repository) GetUserPermissions(userID string) ([]string, error) {
	query := `SELECT DISTINCT p.name
	          FROM permissions p
	          JOIN role_permissions rp ON rp.permission_id = p.id
	          JOIN roles ro ON ro.id = rp.role_id
	          JOIN user_roles ur ON ur.role_id = ro.id
	          WHERE ur.user_id = ?
	            AND p.deleted_at IS NULL
	            AND ro.deleted_at IS NULL`
	return r.scanNames(query, userID)
}

func (r *Repository) scanNames(query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
