package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthContext is the immutable snapshot of a user returned by a successful
// password verification. It deliberately excludes the password hash. The
// snapshot is threaded explicitly through the second-factor calls rather
// than held as service state, so a request always operates on the exact
// identity it verified.
type AuthContext struct {
	UserID               uuid.UUID
	Username             string
	Email                string
	Role                 UserRole
	Status               UserStatus
	MFAEnabled           bool
	MFAKeyVerified       bool
	EncryptedTOTPSecret  *string
	RegistrationNumber   *string
	AccountCreatedAt     time.Time
	RequiresVerification bool
}

// NewAuthContext builds a snapshot from a user row.
func NewAuthContext(u *User) *AuthContext {
	return &AuthContext{
		UserID:              u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Role:                u.Role,
		Status:              u.Status,
		MFAEnabled:          u.MFAEnabled,
		MFAKeyVerified:      u.MFAKeyVerified,
		EncryptedTOTPSecret: u.EncryptedTOTPSecret,
		RegistrationNumber:  u.RegistrationNumber,
		AccountCreatedAt:    u.CreatedAt,
	}
}

// WithVerificationCleared returns a copy with the second-factor requirement
// satisfied. The receiver is left untouched.
func (a *AuthContext) WithVerificationCleared() *AuthContext {
	next := *a
	next.RequiresVerification = false
	return &next
}

// HasTOTPKey reports whether the snapshot carries an encrypted
// authenticator key.
func (a *AuthContext) HasTOTPKey() bool {
	return a.EncryptedTOTPSecret != nil && *a.EncryptedTOTPSecret != ""
}
