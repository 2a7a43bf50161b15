package auth

import (
	"time"

	userDatamodel "github.com/gfmoura/book-management/internal/core/datamodel/user"
)

// LockoutPolicy holds the brute-force defense as pure state transitions on
// the user row, so the same rules apply to login and any other
// credential-sensitive path.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

func NewLockoutPolicy(threshold int, duration time.Duration) LockoutPolicy {
	return LockoutPolicy{Threshold: threshold, Duration: duration}
}

// IsLocked reports whether the account is locked at the given instant.
// When the lock has expired it clears locked_until and resets the failure
// counter on the in-memory row; the caller must persist that mutation
// inside the same transaction as the surrounding operation.
func (p LockoutPolicy) IsLocked(u *userDatamodel.User, now time.Time) bool {
	if u.LockedUntil == nil {
		return false
	}
	if now.Before(*u.LockedUntil) {
		return true
	}
	u.LockedUntil = nil
	u.FailedLoginAttempts = 0
	return false
}

// RecordFailure increments the failure counter and sets the lock once the
// counter reaches the threshold.
func (p LockoutPolicy) RecordFailure(u *userDatamodel.User, now time.Time) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		u.LockedUntil = &until
	}
}

// RecordSuccess resets the failure counter, clears any lock and stamps
// last_login.
func (p LockoutPolicy) RecordSuccess(u *userDatamodel.User, now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	t := now
	u.LastLogin = &t
}
