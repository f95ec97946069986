package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountToken is a single-use email-round-trip token. The same table backs
// both account verification and password reset: a token issued to a pending
// account verifies it, a token issued to an active account resets its
// password. The purpose is therefore derived from the live user status at
// verification time, not stored on the row.
type AccountToken struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Selector       string // 32 hex chars (16 random bytes), indexed lookup key
	HashedVerifier string // sha256 of verifier bound to user id and expiry
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// AccountTokenClaims is the result of a successful token verification.
// Status is the user's status at verification time; callers dispatch on it
// to decide whether the token acted as a verification or a reset token.
type AccountTokenClaims struct {
	UserID   uuid.UUID
	TokenID  uuid.UUID
	Username string
	Status   UserStatus
}
