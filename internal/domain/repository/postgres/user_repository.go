package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// UserRepositoryPostgres implements repository.UserRepository for PostgreSQL.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserRepositoryPostgres creates a new instance.
func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

const userColumns = `
	id, username, email, password_hash, role, status,
	mfa_enabled, mfa_key_verified, encrypted_totp_secret,
	registration_number, created_at
`

func (r *UserRepositoryPostgres) scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.MFAEnabled, &u.MFAKeyVerified, &u.EncryptedTOTPSecret,
		&u.RegistrationNumber, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by primary ID.
func (r *UserRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// FindByUsername retrieves a user by username.
func (r *UserRepositoryPostgres) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepositoryPostgres) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateStatus transitions the account between pending, active and blocked.
func (r *UserRepositoryPostgres) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	query := `UPDATE users SET status = $1 WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateMFA sets the enabled and key-verified flags together.
func (r *UserRepositoryPostgres) UpdateMFA(ctx context.Context, id uuid.UUID, enabled, keyVerified bool) error {
	query := `UPDATE users SET mfa_enabled = $1, mfa_key_verified = $2 WHERE id = $3`
	result, err := r.pool.Exec(ctx, query, enabled, keyVerified, id)
	if err != nil {
		return fmt.Errorf("failed to update MFA flags: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetEncryptedTOTPSecret stores or clears the authenticator key.
func (r *UserRepositoryPostgres) SetEncryptedTOTPSecret(ctx context.Context, id uuid.UUID, secret *string) error {
	query := `UPDATE users SET encrypted_totp_secret = $1 WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, secret, id)
	if err != nil {
		return fmt.Errorf("failed to set TOTP secret: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepositoryPostgres)(nil)
