package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// RecoveryCodeRepository defines the interface for single-use MFA fallback
// codes. Codes never expire; consumption deletes the row.
type RecoveryCodeRepository interface {
	// Create persists one code of a batch.
	Create(ctx context.Context, code *models.RecoveryCode) error

	// FindByUserAndSelector retrieves a code by owner and selector.
	// Returns domainErrors.ErrNotFound if absent or owned by another user.
	FindByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string) (*models.RecoveryCode, error)

	// FindByUser lists all outstanding codes for a user in creation order.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.RecoveryCode, error)

	// Delete removes a consumed code by primary ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAllForUser removes every code a user holds. Returns the number
	// of rows removed.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
