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

// AccountTokenRepositoryPostgres implements repository.AccountTokenRepository
// for PostgreSQL.
type AccountTokenRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewAccountTokenRepositoryPostgres creates a new instance.
func NewAccountTokenRepositoryPostgres(pool *pgxpool.Pool) *AccountTokenRepositoryPostgres {
	return &AccountTokenRepositoryPostgres{pool: pool}
}

// Create persists a new token. The table holds at most one row per user;
// issuing a fresh link invalidates the previous one.
func (r *AccountTokenRepositoryPostgres) Create(ctx context.Context, token *models.AccountToken) error {
	query := `
		INSERT INTO account_tokens (id, user_id, selector, hashed_verifier, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id,
		    selector = EXCLUDED.selector,
		    hashed_verifier = EXCLUDED.hashed_verifier,
		    expires_at = EXCLUDED.expires_at,
		    created_at = now()
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID, token.UserID, token.Selector, token.HashedVerifier, token.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("user ID '%s' not found for account token: %w", token.UserID, domainErrors.ErrUserNotFound)
		}
		return fmt.Errorf("failed to create account token: %w", err)
	}
	return nil
}

// FindValidBySelector retrieves an unexpired token by its selector.
func (r *AccountTokenRepositoryPostgres) FindValidBySelector(ctx context.Context, selector string, now time.Time) (*models.AccountToken, error) {
	query := `
		SELECT id, user_id, selector, hashed_verifier, expires_at, created_at
		FROM account_tokens
		WHERE selector = $1 AND expires_at > $2
	`
	t := &models.AccountToken{}
	err := r.pool.QueryRow(ctx, query, selector, now).Scan(
		&t.ID, &t.UserID, &t.Selector, &t.HashedVerifier, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account token by selector: %w", err)
	}
	return t, nil
}

// Delete removes a consumed token. Tokens are single use; deleting an
// already-removed row is not an error.
func (r *AccountTokenRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM account_tokens WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete account token: %w", err)
	}
	return nil
}

// DeleteExpired removes all tokens past their expiry.
func (r *AccountTokenRepositoryPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM account_tokens WHERE expires_at <= $1`
	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired account tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.AccountTokenRepository = (*AccountTokenRepositoryPostgres)(nil)
