package user

import (
	"time"

	"github.com/gfmoura/book-management/internal/core/datamodel"
)

type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"column:username;uniqueIndex;not null"`
	Email        string `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	FirstName    string `gorm:"column:first_name"`
	LastName     string `gorm:"column:last_name"`

	IsActive   bool `gorm:"column:is_active;default:true"`
	IsVerified bool `gorm:"column:is_verified;default:false"`

	LastLogin           *time.Time `gorm:"column:last_login"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;default:0;not null"`
	LockedUntil         *time.Time `gorm:"column:locked_until"`

	datamodel.AuditInfo      `gorm:"embedded"`
	datamodel.SoftDeleteInfo `gorm:"embedded"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Description string `gorm:"column:description"`
	IsDefault   bool   `gorm:"column:is_default;default:false"`
	IsSystem    bool   `gorm:"column:is_system;default:false"`

	datamodel.AuditInfo      `gorm:"embedded"`
	datamodel.SoftDeleteInfo `gorm:"embedded"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Description string `gorm:"column:description"`
	Resource    string `gorm:"column:resource;not null"`
	Action      string `gorm:"column:action;not null"`

	datamodel.AuditInfo      `gorm:"embedded"`
	datamodel.SoftDeleteInfo `gorm:"embedded"`
}

func (Permission) TableName() string {
	return "permissions"
}

// UserRole links a user to a role. The row records when and by whom the
// assignment was made; it has no lifecycle beyond its endpoints.
type UserRole struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	RoleID    string    `gorm:"column:role_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	CreatedBy *string   `gorm:"column:created_by"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// RolePermission links a role to a permission.
type RolePermission struct {
	RoleID       string    `gorm:"column:role_id;primaryKey"`
	PermissionID string    `gorm:"column:permission_id;primaryKey"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	CreatedBy    *string   `gorm:"column:created_by"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
