package auth

import (
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LockoutPolicy", func() {
	var (
		policy LockoutPolicy
		u      *userDatamodel.User
		now    time.Time
	)

	BeforeEach(func() {
		policy = NewLockoutPolicy(5, 15*time.Minute)
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		u = &userDatamodel.User{ID: "user-1", IsActive: true}
	})

	Describe("RecordFailure", func() {
		It("counts failures without locking below the threshold", func() {
			for i := 0; i < 4; i++ {
				policy.RecordFailure(u, now)
			}
			Expect(u.FailedLoginAttempts).To(Equal(4))
			Expect(u.LockedUntil).To(BeNil())
		})

		It("locks for the configured duration at the threshold", func() {
			for i := 0; i < 5; i++ {
				policy.RecordFailure(u, now)
			}
			Expect(u.LockedUntil).To(HaveValue(Equal(now.Add(15 * time.Minute))))
		})
	})

	Describe("IsLocked", func() {
		It("is false for a user with no lock", func() {
			Expect(policy.IsLocked(u, now)).To(BeFalse())
		})

		It("holds while the lock has not expired", func() {
			until := now.Add(time.Minute)
			u.LockedUntil = &until
			Expect(policy.IsLocked(u, now)).To(BeTrue())
		})

		It("clears the lock and the counter once expired", func() {
			until := now.Add(-time.Second)
			u.LockedUntil = &until
			u.FailedLoginAttempts = 5

			Expect(policy.IsLocked(u, now)).To(BeFalse())
			Expect(u.LockedUntil).To(BeNil())
			Expect(u.FailedLoginAttempts).To(BeZero())
		})
	})

	Describe("RecordSuccess", func() {
		It("resets the counter, clears the lock and stamps last_login", func() {
			until := now.Add(time.Minute)
			u.LockedUntil = &until
			u.FailedLoginAttempts = 3

			policy.RecordSuccess(u, now)
			Expect(u.FailedLoginAttempts).To(BeZero())
			Expect(u.LockedUntil).To(BeNil())
			Expect(u.LastLogin).To(HaveValue(Equal(now)))
		})
	})
})

var _ = Describe("PasswordHasher", func() {
	var hasher *PasswordHasher

	BeforeEach(func() {
		hasher = NewPasswordHasher(4)
	})

	It("verifies its own hashes", func() {
		hash, err := hasher.Hash("Sup3r-Secret!")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(Equal("Sup3r-Secret!"))
		Expect(hasher.Verify("Sup3r-Secret!", hash)).To(BeTrue())
	})

	It("rejects the wrong password", func() {
		hash, err := hasher.Hash("Sup3r-Secret!")
		Expect(err).NotTo(HaveOccurred())
		Expect(hasher.Verify("sup3r-secret!", hash)).To(BeFalse())
	})

	It("treats a malformed stored hash as a mismatch", func() {
		Expect(hasher.Verify("anything", "not-a-bcrypt-hash")).To(BeFalse())
	})

	It("produces distinct hashes for the same password", func() {
		first, err := hasher.Hash("Sup3r-Secret!")
		Expect(err).NotTo(HaveOccurred())
		second, err := hasher.Hash("Sup3r-Secret!")
		Expect(err).NotTo(HaveOccurred())
		Expect(first).NotTo(Equal(second))
	})
})
