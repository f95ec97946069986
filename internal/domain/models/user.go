package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the portal role assigned to an account.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// UserStatus is the lifecycle state of an account. New accounts start as
// pending until the verification link has been followed.
type UserStatus string

const (
	StatusPending UserStatus = "pending"
	StatusActive  UserStatus = "active"
	StatusBlocked UserStatus = "blocked"
)

// User is the account row as stored by the user repository. The auth layer
// reads it; mutations are limited to password, status and MFA fields.
type User struct {
	ID                  uuid.UUID
	Username            string
	Email               string
	PasswordHash        string
	Role                UserRole
	Status              UserStatus
	MFAEnabled          bool
	MFAKeyVerified      bool
	EncryptedTOTPSecret *string
	RegistrationNumber  *string
	CreatedAt           time.Time
}

// HasTOTPKey reports whether an authenticator key has been stored for the
// account, verified or not.
func (u *User) HasTOTPKey() bool {
	return u.EncryptedTOTPSecret != nil && *u.EncryptedTOTPSecret != ""
}
