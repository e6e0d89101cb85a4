// Package invites owns the single-use invitation lifecycle: issue,
// validate, redeem. Redemption is the one write in the system that can
// race, and it is settled by a conditional update in the store rather than
// a lock.
package invites

import (
	"errors"
	"time"

	"github.com/starlordamit/poponew-sub001/internal/catalog"
)

var (
	// ErrInvalidRole indicates the requested role cannot be invited.
	ErrInvalidRole = errors.New("invites: invalid role")
	// ErrInvalidToken indicates no invitation matches the token.
	ErrInvalidToken = errors.New("invites: invalid token")
	// ErrExpired indicates the invitation's deadline has passed.
	ErrExpired = errors.New("invites: invitation expired")
	// ErrAlreadyUsed indicates the invitation was redeemed before.
	ErrAlreadyUsed = errors.New("invites: invitation already used")
	// ErrConflictLost indicates a concurrent redemption won. Terminal for
	// the token; callers must not retry.
	ErrConflictLost = errors.New("invites: redemption lost to concurrent request")
	// ErrPartialRedemption indicates the token was consumed but the role
	// grant failed. Operator repair only; retrying would risk a double
	// grant.
	ErrPartialRedemption = errors.New("invites: invitation consumed but role grant failed")
)

// DefaultTTL applies when lifetimes are not specified by the inviter.
const DefaultTTL = 7 * 24 * time.Hour

// Invitation is a single-use, time-bounded grant of the right to create a
// role record. The raw token is returned once at issue time; only its hash
// is stored.
type Invitation struct {
	ID        string
	TokenHash string
	Email     string
	Role      catalog.Role
	InvitedBy string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the deadline has passed at now.
func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsUsed reports whether the invitation has been redeemed.
func (i Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

// Status is the derived lifecycle state for display purposes. Expiry is
// read-time, not a stored transition.
type Status string

const (
	StatusPending Status = "pending"
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
)

// StatusAt derives the lifecycle state at now. A used invitation stays
// "used" even past its deadline; used_at is never cleared.
func (i Invitation) StatusAt(now time.Time) Status {
	if i.IsUsed() {
		return StatusUsed
	}
	if i.IsExpired(now) {
		return StatusExpired
	}
	return StatusPending
}

// Clock abstracts time for expiry comparisons.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
