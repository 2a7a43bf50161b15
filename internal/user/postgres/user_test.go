package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
)

func TestUserRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UserRepository Suite")
}

type SQLiteUser struct {
	ID                  string `gorm:"primaryKey"`
	Username            string
	Email               string
	PasswordHash        string `gorm:"column:password_hash"`
	FirstName           string `gorm:"column:first_name"`
	LastName            string `gorm:"column:last_name"`
	IsActive            bool
	IsVerified          bool
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

type SQLiteUserRole struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	RoleID    string `gorm:"column:role_id;primaryKey"`
	CreatedAt time.Time
	CreatedBy *string
}

func (SQLiteUserRole) TableName() string { return "user_roles" }

var _ = Describe("UserRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&SQLiteUser{}, &SQLiteRole{}, &SQLiteUserRole{})).To(Succeed())

		repo = NewRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and lookups", func() {
		It("round-trips a user through the datamodel", func() {
			Expect(repo.Create(&userDatamodel.User{
				ID:           "user-1",
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "$2a$04$hash",
				IsActive:     true,
			})).To(Succeed())

			byUsername, err := repo.GetByUsername("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(byUsername).NotTo(BeNil())
			Expect(byUsername.ID).To(Equal("user-1"))

			byEmail, err := repo.GetByEmail("alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail).NotTo(BeNil())
		})

		It("returns nil without error for an unknown user", func() {
			u, err := repo.GetByUsername("nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNil())
		})

		It("hides soft-deleted users from all lookups", func() {
			now := time.Now()
			Expect(db.Create(&SQLiteUser{ID: "user-1", Username: "alice", Email: "alice@example.com", DeletedAt: &now}).Error).To(Succeed())

			for _, lookup := range []func() (*userDatamodel.User, error){
				func() (*userDatamodel.User, error) { return repo.GetByID("user-1") },
				func() (*userDatamodel.User, error) { return repo.GetByUsername("alice") },
				func() (*userDatamodel.User, error) { return repo.GetByEmail("alice@example.com") },
			} {
				u, err := lookup()
				Expect(err).NotTo(HaveOccurred())
				Expect(u).To(BeNil())
			}
		})
	})

	Describe("default roles", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteRole{ID: "role-reader", Name: "reader", IsDefault: true}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRole{ID: "role-admin", Name: "admin"}).Error).To(Succeed())
		})

		It("returns only roles flagged as default", func() {
			roles, err := repo.GetDefaultRoles()
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
			Expect(roles[0].Name).To(Equal("reader"))
		})

		It("excludes soft-deleted default roles", func() {
			now := time.Now()
			Expect(db.Model(&SQLiteRole{}).Where("id = ?", "role-reader").
				Update("deleted_at", now).Error).To(Succeed())

			roles, err := repo.GetDefaultRoles()
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
		})
	})

	Describe("AddUserRole and GetUserRoles", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteUser{ID: "user-1", Username: "alice", Email: "alice@example.com"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteRole{ID: "role-reader", Name: "reader"}).Error).To(Succeed())
		})

		It("attaches the role and reads it back by name", func() {
			Expect(repo.AddUserRole("user-1", "role-reader", "admin-1")).To(Succeed())

			roles, err := repo.GetUserRoles("user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(Equal([]string{"reader"}))
		})

		It("stops reporting a role once it is soft-deleted", func() {
			Expect(repo.AddUserRole("user-1", "role-reader", "admin-1")).To(Succeed())
			now := time.Now()
			Expect(db.Model(&SQLiteRole{}).Where("id = ?", "role-reader").
				Update("deleted_at", now).Error).To(Succeed())

			roles, err := repo.GetUserRoles("user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
		})
	})
})
