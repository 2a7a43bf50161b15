package postgres

import (
	"testing"
	"time"

	"github.com/gfmoura/book-management/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAuthRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuthRepository Suite")
}

// SQLite variants of the schema: no server-side defaults, same columns.
type SQLiteUser struct {
	ID                  string `gorm:"primaryKey"`
	Username            string `gorm:"column:username"`
	Email               string `gorm:"column:email"`
	PasswordHash        string `gorm:"column:password_hash"`
	FirstName           string `gorm:"column:first_name"`
	LastName            string `gorm:"column:last_name"`
	IsActive            bool   `gorm:"column:is_active"`
	IsVerified          bool   `gorm:"column:is_verified"`
	LastLogin           *time.Time
	FailedLoginAttempts int `gorm:"column:failed_login_attempts"`
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CreatedBy           *string
	UpdatedBy           *string
	DeletedAt           *time.Time
	DeletedBy           *string
}

func (SQLiteUser) TableName() string { return "users" }

type SQLiteRole struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	IsDefault   bool
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   *string
	UpdatedBy   *string
	DeletedAt   *time.Time
	DeletedBy   *string
}

func (SQLiteRole) TableName() string { return "roles" }

type SQLitePermission struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	Resource    string
	Action      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   *string
	UpdatedBy   *string
	DeletedAt   *time.Time
	DeletedBy   *string
}

func (SQLitePermission) TableName() string { return "permissions" }

type SQLiteUserRole struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	RoleID    string `gorm:"column:role_id;primaryKey"`
	CreatedAt time.Time
	CreatedBy *string
}

func (SQLiteUserRole) TableName() string { return "user_roles" }

type SQLiteRolePermission struct {
	RoleID       string `gorm:"column:role_id;primaryKey"`
	PermissionID string `gorm:"column:permission_id;primaryKey"`
	CreatedAt    time.Time
	CreatedBy    *string
}

func (SQLiteRolePermission) TableName() string { return "role_permissions" }

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	Expect(err).NotTo(HaveOccurred())
	Expect(db.AutoMigrate(
		&SQLiteUser{}, &SQLiteRole{}, &SQLitePermission{},
		&SQLiteUserRole{}, &SQLiteRolePermission{},
	)).To(Succeed())
	return db
}

var _ = Describe("AuthRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	BeforeEach(func() {
		db = openTestDB()
		repo = NewRepository(db)

		Expect(db.Create(&SQLiteUser{
			ID:           "user-alice",
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "$2a$04$hash",
			IsActive:     true,
		}).Error).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("GetUserForLogin", func() {
		It("resolves by username", func() {
			u, err := repo.GetUserForLogin("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal("user-alice"))
		})

		It("resolves by email", func() {
			u, err := repo.GetUserForLogin("alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal("user-alice"))
		})

		It("does not resolve soft-deleted users", func() {
			now := time.Now()
			Expect(db.Model(&SQLiteUser{}).Where("id = ?", "user-alice").
				Update("deleted_at", now).Error).To(Succeed())

			_, err := repo.GetUserForLogin("alice")
			Expect(err).To(HaveOccurred())
		})

		It("fails for an unknown identifier", func() {
			_, err := repo.GetUserForLogin("nobody")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SaveLoginState", func() {
		It("persists counters, lock expiry and last_login", func() {
			u, err := repo.GetUserForLogin("alice")
			Expect(err).NotTo(HaveOccurred())

			until := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
			last := time.Now().UTC().Truncate(time.Second)
			u.FailedLoginAttempts = 5
			u.LockedUntil = &until
			u.LastLogin = &last
			Expect(repo.SaveLoginState(u)).To(Succeed())

			var stored SQLiteUser
			Expect(db.First(&stored, "id = ?", "user-alice").Error).To(Succeed())
			Expect(stored.FailedLoginAttempts).To(Equal(5))
			Expect(stored.LockedUntil).NotTo(BeNil())
			Expect(stored.LastLogin).NotTo(BeNil())
		})
	})

	Describe("WithinTransaction", func() {
		It("rolls back mutations when the callback fails", func() {
			err := repo.WithinTransaction(func(r auth.Repository) error {
				u, err := r.GetUserForLogin("alice")
				Expect(err).NotTo(HaveOccurred())
				u.FailedLoginAttempts = 3
				Expect(r.SaveLoginState(u)).To(Succeed())
				return auth.ErrInvalidCredentials
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))

			var stored SQLiteUser
			Expect(db.First(&stored, "id = ?", "user-alice").Error).To(Succeed())
			Expect(stored.FailedLoginAttempts).To(BeZero())
		})

		It("commits mutations when the callback succeeds", func() {
			err := repo.WithinTransaction(func(r auth.Repository) error {
				u, err := r.GetUserForLogin("alice")
				Expect(err).NotTo(HaveOccurred())
				u.FailedLoginAttempts = 3
				return r.SaveLoginState(u)
			})
			Expect(err).NotTo(HaveOccurred())

			var stored SQLiteUser
			Expect(db.First(&stored, "id = ?", "user-alice").Error).To(Succeed())
			Expect(stored.FailedLoginAttempts).To(Equal(3))
		})
	})

	Describe("GetUserPermissions", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteRole{ID: "role-1", Name: "editor"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRole{ID: "role-2", Name: "reader"}).Error).To(Succeed())
			Expect(db.Create(&SQLitePermission{ID: "perm-read", Name: "books:read", Resource: "books", Action: "read"}).Error).To(Succeed())
			Expect(db.Create(&SQLitePermission{ID: "perm-create", Name: "books:create", Resource: "books", Action: "create"}).Error).To(Succeed())

			Expect(db.Create(&SQLiteUserRole{UserID: "user-alice", RoleID: "role-1"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteUserRole{UserID: "user-alice", RoleID: "role-2"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRolePermission{RoleID: "role-1", PermissionID: "perm-read"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRolePermission{RoleID: "role-1", PermissionID: "perm-create"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRolePermission{RoleID: "role-2", PermissionID: "perm-read"}).Error).To(Succeed())
		})

		It("returns distinct permission names across roles", func() {
			perms, err := repo.GetUserPermissions("user-alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(ConsistOf("books:read", "books:create"))
		})

		It("stops granting through a soft-deleted role while keeping its rows", func() {
			now := time.Now()
			Expect(db.Model(&SQLiteRole{}).Where("id = ?", "role-1").
				Update("deleted_at", now).Error).To(Succeed())

			perms, err := repo.GetUserPermissions("user-alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(ConsistOf("books:read"))

			var count int64
			Expect(db.Model(&SQLiteRolePermission{}).Where("role_id = ?", "role-1").Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(2)))
		})

		It("excludes soft-deleted permissions", func() {
			now := time.Now()
			Expect(db.Model(&SQLitePermission{}).Where("id = ?", "perm-create").
				Update("deleted_at", now).Error).To(Succeed())

			perms, err := repo.GetUserPermissions("user-alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(ConsistOf("books:read"))
		})

		It("returns nothing for a user with no roles", func() {
			perms, err := repo.GetUserPermissions("user-nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})
	})

	Describe("GetUserByID", func() {
		It("resolves a live user", func() {
			u, err := repo.GetUserByID("user-alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("alice"))
		})

		It("does not resolve soft-deleted users", func() {
			now := time.Now()
			Expect(db.Model(&SQLiteUser{}).Where("id = ?", "user-alice").
				Update("deleted_at", now).Error).To(Succeed())

			_, err := repo.GetUserByID("user-alice")
			Expect(err).To(HaveOccurred())
		})
	})
})
