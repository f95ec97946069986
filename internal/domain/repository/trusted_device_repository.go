package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// TrustedDeviceRepository defines the interface for remembered-device rows.
// A user may hold several concurrent trust grants, one per browser.
type TrustedDeviceRepository interface {
	// Create persists a new trust grant.
	Create(ctx context.Context, device *models.TrustedDevice) error

	// FindValidByUserAndSelector retrieves an unexpired grant by owner and
	// selector. Returns domainErrors.ErrNotFound for unknown selectors,
	// expired rows and selectors belonging to other users alike.
	FindValidByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string, now time.Time) (*models.TrustedDevice, error)

	// FindValidByUser lists all unexpired grants for a user, newest first.
	FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.TrustedDevice, error)

	// Delete removes a grant by primary ID, scoped to its owner. Returns
	// domainErrors.ErrNotFound if the row does not exist or belongs to
	// someone else.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteExpired removes all grants past their expiry. Returns the number
	// of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
