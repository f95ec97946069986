package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// TrustedDeviceRepositoryPostgres implements repository.TrustedDeviceRepository
// for PostgreSQL.
type TrustedDeviceRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewTrustedDeviceRepositoryPostgres creates a new instance.
func NewTrustedDeviceRepositoryPostgres(pool *pgxpool.Pool) *TrustedDeviceRepositoryPostgres {
	return &TrustedDeviceRepositoryPostgres{pool: pool}
}

// Create persists a new trust grant.
func (r *TrustedDeviceRepositoryPostgres) Create(ctx context.Context, device *models.TrustedDevice) error {
	query := `
		INSERT INTO trusted_devices (id, user_id, selector, hashed_verifier, encrypted_device, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		device.ID, device.UserID, device.Selector, device.HashedVerifier,
		device.EncryptedDevice, device.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("user ID '%s' not found for trusted device: %w", device.UserID, domainErrors.ErrUserNotFound)
		}
		return fmt.Errorf("failed to create trusted device: %w", err)
	}
	return nil
}

// FindValidByUserAndSelector retrieves an unexpired grant by owner and selector.
func (r *TrustedDeviceRepositoryPostgres) FindValidByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string, now time.Time) (*models.TrustedDevice, error) {
	query := `
		SELECT id, user_id, selector, hashed_verifier, encrypted_device, expires_at, created_at
		FROM trusted_devices
		WHERE user_id = $1 AND selector = $2 AND expires_at > $3
	`
	d := &models.TrustedDevice{}
	err := r.pool.QueryRow(ctx, query, userID, selector, now).Scan(
		&d.ID, &d.UserID, &d.Selector, &d.HashedVerifier,
		&d.EncryptedDevice, &d.ExpiresAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trusted device by selector: %w", err)
	}
	return d, nil
}

// FindValidByUser lists all unexpired grants for a user, newest first.
func (r *TrustedDeviceRepositoryPostgres) FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.TrustedDevice, error) {
	query := `
		SELECT id, user_id, selector, hashed_verifier, encrypted_device, expires_at, created_at
		FROM trusted_devices
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.TrustedDevice
	for rows.Next() {
		d := &models.TrustedDevice{}
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Selector, &d.HashedVerifier,
			&d.EncryptedDevice, &d.ExpiresAt, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trusted device row: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trusted device rows: %w", err)
	}
	return devices, nil
}

// Delete removes a grant by primary ID, scoped to its owner.
func (r *TrustedDeviceRepositoryPostgres) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM trusted_devices WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete trusted device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// DeleteExpired removes all grants past their expiry.
func (r *TrustedDeviceRepositoryPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM trusted_devices WHERE expires_at <= $1`
	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired trusted devices: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.TrustedDeviceRepository = (*TrustedDeviceRepositoryPostgres)(nil)
