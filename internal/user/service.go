package user

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/gfmoura/book-management/internal"
	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
)

// PasswordHasher abstracts the bcrypt hasher so service tests can swap in a
// cheap fake.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Repository interface {
	WithinTransaction(fn func(Repository) error) error

	GetByID(id string) (*userDatamodel.User, error)
	GetByUsername(username string) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
	Save(u *userDatamodel.User) error
	GetDefaultRoles() ([]*userDatamodel.Role, error)
	AddUserRole(userID, roleID string, actorID string) error
	GetUserRoles(userID string) ([]string, error)
	GetUserPermissions(userID string) ([]string, error)
}

type ServiceAPI interface {
	CreateUser(dto CreateUserDTO, actorID string) (*User, error)
	GetByID(id string) (*User, error)
	DeleteUser(id, actorID string) error
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// CreateUser registers a new account. Username and email must be unique
// among non-deleted users; default roles are attached in the same
// transaction so a new user never exists without its baseline access.
func (s *Service) CreateUser(dto CreateUserDTO, actorID string) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	var created *userDatamodel.User
	err = s.repo.WithinTransaction(func(r Repository) error {
		if existing, err := r.GetByUsername(dto.Username); err == nil && existing != nil {
			return errors.NewConflictError("Username already exists", errors.ErrCodeDuplicateUser)
		}
		if existing, err := r.GetByEmail(dto.Email); err == nil && existing != nil {
			return errors.NewConflictError("Email already exists", errors.ErrCodeDuplicateUser)
		}

		u := &userDatamodel.User{
			ID:           uuid.NewString(),
			Username:     dto.Username,
			Email:        dto.Email,
			PasswordHash: hash,
			FirstName:    dto.FirstName,
			LastName:     dto.LastName,
			IsActive:     true,
		}
		if actorID != "" {
			u.CreatedBy = &actorID
		}
		if err := r.Create(u); err != nil {
			return errors.NewInternalError("failed to create user", err)
		}

		defaults, err := r.GetDefaultRoles()
		if err != nil {
			return errors.NewInternalError("failed to resolve default roles", err)
		}
		for _, role := range defaults {
			if err := r.AddUserRole(u.ID, role.ID, actorID); err != nil {
				return errors.NewInternalError("failed to assign default role", err)
			}
		}

		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", created.ID, "username", created.Username)
	return FromDataModel(created), nil
}

func (s *Service) GetByID(id string) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, errors.ErrUserNotFound
	}

	roles, err := s.repo.GetUserRoles(id)
	if err != nil {
		return nil, errors.NewInternalError("failed to get user roles", err)
	}
	perms, err := s.repo.GetUserPermissions(id)
	if err != nil {
		return nil, errors.NewInternalError("failed to get user permissions", err)
	}

	return FromDataModelWithAccess(u, roles, perms), nil
}

// DeleteUser soft-deletes the account. Role assignments stay in place so a
// restore brings the user back with its previous access.
func (s *Service) DeleteUser(id, actorID string) error {
	return s.repo.WithinTransaction(func(r Repository) error {
		u, err := r.GetByID(id)
		if err != nil {
			return errors.NewInternalError("failed to get user", err)
		}
		if u == nil {
			return errors.ErrUserNotFound
		}
		u.MarkDeleted(time.Now(), actorID)
		return r.Save(u)
	})
}
