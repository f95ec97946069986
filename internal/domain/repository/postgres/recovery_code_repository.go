package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// RecoveryCodeRepositoryPostgres implements repository.RecoveryCodeRepository
// for PostgreSQL.
type RecoveryCodeRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewRecoveryCodeRepositoryPostgres creates a new instance.
func NewRecoveryCodeRepositoryPostgres(pool *pgxpool.Pool) *RecoveryCodeRepositoryPostgres {
	return &RecoveryCodeRepositoryPostgres{pool: pool}
}

// Create persists one code of a batch.
func (r *RecoveryCodeRepositoryPostgres) Create(ctx context.Context, code *models.RecoveryCode) error {
	query := `
		INSERT INTO recovery_codes (id, user_id, selector, encrypted_verifier)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		code.ID, code.UserID, code.Selector, code.EncryptedVerifier,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation on (user_id, selector)
				return fmt.Errorf("recovery code selector collision for user '%s': %w", code.UserID, domainErrors.ErrStorage)
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return fmt.Errorf("user ID '%s' not found for recovery code: %w", code.UserID, domainErrors.ErrUserNotFound)
			}
		}
		return fmt.Errorf("failed to create recovery code: %w", err)
	}
	return nil
}

// FindByUserAndSelector retrieves a code by owner and selector.
func (r *RecoveryCodeRepositoryPostgres) FindByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string) (*models.RecoveryCode, error) {
	query := `
		SELECT id, user_id, selector, encrypted_verifier, created_at
		FROM recovery_codes
		WHERE user_id = $1 AND selector = $2
	`
	c := &models.RecoveryCode{}
	err := r.pool.QueryRow(ctx, query, userID, selector).Scan(
		&c.ID, &c.UserID, &c.Selector, &c.EncryptedVerifier, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find recovery code by selector: %w", err)
	}
	return c, nil
}

// FindByUser lists all outstanding codes for a user in creation order.
func (r *RecoveryCodeRepositoryPostgres) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.RecoveryCode, error) {
	query := `
		SELECT id, user_id, selector, encrypted_verifier, created_at
		FROM recovery_codes
		WHERE user_id = $1
		ORDER BY created_at ASC, selector ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recovery codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.RecoveryCode
	for rows.Next() {
		c := &models.RecoveryCode{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Selector, &c.EncryptedVerifier, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recovery code row: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recovery code rows: %w", err)
	}
	return codes, nil
}

// Delete removes a consumed code by primary ID.
func (r *RecoveryCodeRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM recovery_codes WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete recovery code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// DeleteAllForUser removes every code a user holds.
func (r *RecoveryCodeRepositoryPostgres) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM recovery_codes WHERE user_id = $1`
	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete recovery codes for user: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.RecoveryCodeRepository = (*RecoveryCodeRepositoryPostgres)(nil)
