package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with baseline data",
	Long:  `Seed permissions, the admin and reader roles, and an initial admin user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"user_roles", "role_permissions", "books", "permissions", "roles", "users"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		permissions := []struct {
			Name     string
			Resource string
			Action   string
			Desc     string
		}{
			{"admin", "*", "execute", "Full administrator"},
			{"books:create", "books", "create", "Can create books"},
			{"books:read", "books", "read", "Can read books"},
			{"books:update", "books", "update", "Can update books"},
			{"books:delete", "books", "delete", "Can delete books"},
			{"users:read", "users", "read", "Can view users"},
			{"users:update", "users", "update", "Can manage users"},
			{"roles:read", "roles", "read", "Can view roles"},
			{"roles:update", "roles", "update", "Can manage roles"},
			{"permissions:update", "permissions", "update", "Can manage permissions"},
		}

		for _, p := range permissions {
			if err := ensurePermission(db, p.Name, p.Resource, p.Action, p.Desc); err != nil {
				log.Fatalf("failed to seed permission %s: %v", p.Name, err)
			}
		}
		fmt.Println("Permissions seeded")

		adminRoleID, err := ensureRole(db, "admin", "Full system access", false, true)
		if err != nil {
			log.Fatalf("failed to seed admin role: %v", err)
		}
		readerRoleID, err := ensureRole(db, "reader", "Read-only access to books", true, true)
		if err != nil {
			log.Fatalf("failed to seed reader role: %v", err)
		}

		if err := ensureRolePermission(db, adminRoleID, "admin"); err != nil {
			log.Fatalf("failed to grant admin permission: %v", err)
		}
		if err := ensureRolePermission(db, readerRoleID, "books:read"); err != nil {
			log.Fatalf("failed to grant reader permission: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		adminUserID, created, err := ensureUser(db, "admin", "admin@example.com", string(hash))
		if err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
		if created {
			fmt.Println("Seeded admin user: admin@example.com (password ChangeMe123!)")
		}

		if err := ensureUserRole(db, adminUserID, adminRoleID); err != nil {
			log.Fatalf("failed to attach admin role: %v", err)
		}

		fmt.Println("Seeding complete")
	},
}

func ensurePermission(db *gorm.DB, name, resource, action, desc string) error {
	var exists int
	if err := db.Raw("SELECT 1 FROM permissions WHERE name = ?", name).Row().Scan(&exists); err == nil {
		return nil
	}
	return db.Exec(
		"INSERT INTO permissions (id, name, description, resource, action, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now())",
		uuid.NewString(), name, desc, resource, action).Error
}

func ensureRole(db *gorm.DB, name, desc string, isDefault, isSystem bool) (string, error) {
	var id string
	if err := db.Raw("SELECT id FROM roles WHERE name = ?", name).Row().Scan(&id); err == nil {
		return id, nil
	}
	id = uuid.NewString()
	err := db.Exec(
		"INSERT INTO roles (id, name, description, is_default, is_system, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now())",
		id, name, desc, isDefault, isSystem).Error
	return id, err
}

func ensureRolePermission(db *gorm.DB, roleID, permissionName string) error {
	var permID string
	if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permissionName).Row().Scan(&permID); err != nil {
		return fmt.Errorf("permission not found %s: %w", permissionName, err)
	}
	var exists int
	if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", roleID, permID).Row().Scan(&exists); err == nil {
		return nil
	}
	return db.Exec(
		"INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES (?, ?, now())",
		roleID, permID).Error
}

func ensureUser(db *gorm.DB, username, email, passwordHash string) (string, bool, error) {
	var id string
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
		return id, false, nil
	}
	id = uuid.NewString()
	err := db.Exec(
		"INSERT INTO users (id, username, email, password_hash, is_active, is_verified, failed_login_attempts, created_at, updated_at) VALUES (?, ?, ?, ?, true, true, 0, now(), now())",
		id, username, email, passwordHash).Error
	return id, true, err
}

func ensureUserRole(db *gorm.DB, userID, roleID string) error {
	var exists int
	if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ? AND role_id = ?", userID, roleID).Row().Scan(&exists); err == nil {
		return nil
	}
	return db.Exec(
		"INSERT INTO user_roles (user_id, role_id, created_at) VALUES (?, ?, now())",
		userID, roleID).Error
}
