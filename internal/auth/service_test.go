package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

var errNotFound = errors.New("record not found")

// mockRepository implements Repository with in-memory users. Saves are
// applied to the stored row so lockout state survives across attempts the
// way committed transactions would.
type mockRepository struct {
	users     map[string]*userDatamodel.User // keyed by username and email
	usersByID map[string]*userDatamodel.User
	perms     map[string][]string

	saveCalls int
	saveErr   error
	txErr     error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:     make(map[string]*userDatamodel.User),
		usersByID: make(map[string]*userDatamodel.User),
		perms:     make(map[string][]string),
	}
}

func (m *mockRepository) addUser(u *userDatamodel.User) {
	m.users[u.Username] = u
	m.users[u.Email] = u
	m.usersByID[u.ID] = u
}

func (m *mockRepository) WithinTransaction(fn func(Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *mockRepository) GetUserForLogin(identifier string) (*userDatamodel.User, error) {
	u, ok := m.users[identifier]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (m *mockRepository) SaveLoginState(u *userDatamodel.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	return nil
}

func (m *mockRepository) GetUserByID(id string) (*userDatamodel.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (m *mockRepository) GetUserPermissions(userID string) ([]string, error) {
	return m.perms[userID], nil
}

var _ = Describe("Authenticator", func() {
	const password = "Correct-Horse1!"

	var (
		repo    *mockRepository
		hasher  *PasswordHasher
		tokens  *JWTTokenGenerator
		service *Service
		alice   *userDatamodel.User
		now     time.Time
	)

	BeforeEach(func() {
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		repo = newMockRepository()
		hasher = NewPasswordHasher(4)
		tokens = NewJWTTokenGenerator("0123456789abcdef0123456789abcdef", "books", "books-api", 4*time.Hour)
		tokens.TimeFunc = func() time.Time { return now }

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, tokens, hasher, NewLockoutPolicy(5, 15*time.Minute), nil, logger)
		service.now = func() time.Time { return now }

		hash, err := hasher.Hash(password)
		Expect(err).NotTo(HaveOccurred())

		alice = &userDatamodel.User{
			ID:           "user-alice",
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: hash,
			IsActive:     true,
		}
		repo.addUser(alice)
	})

	login := func(username, pw string) (AuthToken, error) {
		return service.Authenticate(LoginDTO{Username: username, Password: pw})
	}

	Describe("successful login", func() {
		It("returns a bearer token with the configured TTL", func() {
			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())
			Expect(token.AccessToken).NotTo(BeEmpty())
			Expect(token.TokenType).To(Equal("bearer"))
			Expect(token.ExpiresIn).To(Equal(int64(4 * 60 * 60)))
		})

		It("accepts the email address as identifier", func() {
			_, err := login("alice@example.com", password)
			Expect(err).NotTo(HaveOccurred())
		})

		It("resets the failure counter and stamps last_login", func() {
			alice.FailedLoginAttempts = 3

			_, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())
			Expect(alice.FailedLoginAttempts).To(BeZero())
			Expect(alice.LastLogin).NotTo(BeNil())
			Expect(*alice.LastLogin).To(Equal(now))
			Expect(repo.saveCalls).To(Equal(1))
		})
	})

	Describe("failed login", func() {
		It("rejects an unknown user without persisting anything", func() {
			_, err := login("nobody", password)
			Expect(err).To(Equal(ErrInvalidCredentials))
			Expect(repo.saveCalls).To(BeZero())
		})

		It("increments and persists the failure counter on a wrong password", func() {
			_, err := login("alice", "wrong-password")
			Expect(err).To(Equal(ErrInvalidCredentials))
			Expect(alice.FailedLoginAttempts).To(Equal(1))
			Expect(alice.LockedUntil).To(BeNil())
			Expect(repo.saveCalls).To(Equal(1))
		})

		It("rejects an inactive user with the same public signal as bad credentials", func() {
			alice.IsActive = false

			_, err := login("alice", password)
			Expect(err).To(Equal(ErrUserInactive))
		})

		It("surfaces a persistence failure instead of an auth outcome", func() {
			repo.saveErr = errors.New("disk full")

			_, err := login("alice", "wrong-password")
			Expect(err).To(MatchError(ContainSubstring("authentication attempt")))
		})
	})

	Describe("lockout", func() {
		It("locks the account on the fifth consecutive failure", func() {
			for i := 0; i < 4; i++ {
				_, err := login("alice", "wrong-password")
				Expect(err).To(Equal(ErrInvalidCredentials))
				Expect(alice.LockedUntil).To(BeNil())
			}

			_, err := login("alice", "wrong-password")
			Expect(err).To(Equal(ErrInvalidCredentials))
			Expect(alice.FailedLoginAttempts).To(Equal(5))
			Expect(alice.LockedUntil).NotTo(BeNil())
			Expect(*alice.LockedUntil).To(Equal(now.Add(15 * time.Minute)))
		})

		It("rejects the correct password while the lock holds", func() {
			for i := 0; i < 5; i++ {
				login("alice", "wrong-password")
			}

			_, err := login("alice", password)
			Expect(err).To(Equal(ErrAccountLocked))
		})

		It("never pays the hash cost for a locked account", func() {
			until := now.Add(10 * time.Minute)
			alice.LockedUntil = &until
			savesBefore := repo.saveCalls

			_, err := login("alice", password)
			Expect(err).To(Equal(ErrAccountLocked))
			Expect(repo.saveCalls).To(Equal(savesBefore))
		})

		It("auto-unlocks once the lock expires and lets the correct password in", func() {
			for i := 0; i < 5; i++ {
				login("alice", "wrong-password")
			}

			now = now.Add(16 * time.Minute)

			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())
			Expect(token.AccessToken).NotTo(BeEmpty())
			Expect(alice.FailedLoginAttempts).To(BeZero())
			Expect(alice.LockedUntil).To(BeNil())
		})

		It("starts a fresh counter after an expired lock", func() {
			for i := 0; i < 5; i++ {
				login("alice", "wrong-password")
			}

			now = now.Add(16 * time.Minute)

			_, err := login("alice", "wrong-password")
			Expect(err).To(Equal(ErrInvalidCredentials))
			Expect(alice.FailedLoginAttempts).To(Equal(1))
			Expect(alice.LockedUntil).To(BeNil())
		})
	})

	Describe("input validation", func() {
		It("rejects an empty username", func() {
			_, err := login("", password)
			Expect(err).To(BeAssignableToTypeOf(ValidationError{}))
		})

		It("rejects an empty password", func() {
			_, err := login("alice", "")
			Expect(err).To(BeAssignableToTypeOf(ValidationError{}))
		})
	})

	Describe("VerifyToken", func() {
		It("resolves a valid token to the identity with effective permissions", func() {
			repo.perms[alice.ID] = []string{"books:read", "books:create"}

			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())

			identity, err := service.VerifyToken(token.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.UserID).To(Equal(alice.ID))
			Expect(identity.Username).To(Equal("alice"))
			Expect(identity.Email).To(Equal("alice@example.com"))
			Expect(identity.Permissions).To(ConsistOf("books:read", "books:create"))
		})

		It("reports expiry distinctly", func() {
			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(4*time.Hour + time.Minute)

			_, err = service.VerifyToken(token.AccessToken)
			Expect(err).To(Equal(ErrTokenExpired))
		})

		It("rejects a tampered token", func() {
			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())

			tampered := token.AccessToken[:len(token.AccessToken)-2] + "xx"
			_, err = service.VerifyToken(tampered)
			Expect(err).To(Equal(ErrInvalidToken))
		})

		It("fails when the subject no longer resolves to a user", func() {
			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())

			delete(repo.usersByID, alice.ID)

			_, err = service.VerifyToken(token.AccessToken)
			Expect(err).To(Equal(ErrUserNotFound))
		})

		It("fails when the user was deactivated after issuance", func() {
			token, err := login("alice", password)
			Expect(err).NotTo(HaveOccurred())

			alice.IsActive = false

			_, err = service.VerifyToken(token.AccessToken)
			Expect(err).To(Equal(ErrUserInactive))
		})
	})

	Describe("UnlockAccount", func() {
		It("clears the lock and counter and stamps the acting admin", func() {
			until := now.Add(10 * time.Minute)
			alice.LockedUntil = &until
			alice.FailedLoginAttempts = 5

			Expect(service.UnlockAccount(alice.ID, "admin-1")).To(Succeed())
			Expect(alice.FailedLoginAttempts).To(BeZero())
			Expect(alice.LockedUntil).To(BeNil())
			Expect(alice.UpdatedBy).To(HaveValue(Equal("admin-1")))
		})

		It("fails for an unknown user", func() {
			Expect(service.UnlockAccount("missing", "admin-1")).To(Equal(ErrUserNotFound))
		})
	})

	Describe("GetSecurityStatus", func() {
		It("exposes the lock state without mutating the row", func() {
			until := now.Add(10 * time.Minute)
			alice.LockedUntil = &until
			alice.FailedLoginAttempts = 5

			status, err := service.GetSecurityStatus(alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.IsLocked).To(BeTrue())
			Expect(status.FailedAttempts).To(Equal(5))
			Expect(status.LockedUntil).To(HaveValue(Equal(until)))

			// read-only: the row keeps its lock
			Expect(alice.LockedUntil).NotTo(BeNil())
		})

		It("reads an expired lock as unlocked without clearing it", func() {
			until := now.Add(-time.Minute)
			alice.LockedUntil = &until
			alice.FailedLoginAttempts = 5

			status, err := service.GetSecurityStatus(alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.IsLocked).To(BeFalse())
			Expect(status.FailedAttempts).To(Equal(5))
			Expect(alice.LockedUntil).NotTo(BeNil())
		})

		It("fails for an unknown user", func() {
			_, err := service.GetSecurityStatus("missing")
			Expect(err).To(Equal(ErrUserNotFound))
		})
	})
})
