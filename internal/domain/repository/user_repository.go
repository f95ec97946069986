package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// UserRepository defines the interface for interacting with user account data.
type UserRepository interface {
	// FindByID retrieves a user by primary ID.
	// Returns domainErrors.ErrUserNotFound if no such user exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByUsername retrieves a user by username. The portal treats the
	// username as the login identifier; lookup is exact-match.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateStatus transitions the account between pending, active and blocked.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error

	// UpdateMFA sets the enabled and key-verified flags together.
	UpdateMFA(ctx context.Context, id uuid.UUID, enabled, keyVerified bool) error

	// SetEncryptedTOTPSecret stores a newly provisioned authenticator key,
	// or clears it when secret is nil.
	SetEncryptedTOTPSecret(ctx context.Context, id uuid.UUID, secret *string) error
}
