package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// SessionRepositoryPostgres implements repository.SessionRepository for
// PostgreSQL.
type SessionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSessionRepositoryPostgres creates a new instance.
func NewSessionRepositoryPostgres(pool *pgxpool.Pool) *SessionRepositoryPostgres {
	return &SessionRepositoryPostgres{pool: pool}
}

// Get retrieves a session row by its external ID.
func (r *SessionRepositoryPostgres) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	query := `
		SELECT session_id, data, user_id, last_touched
		FROM sessions
		WHERE session_id = $1
	`
	s := &models.SessionRecord{}
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&s.SessionID, &s.Data, &s.UserID, &s.LastTouched,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// CreateBare inserts an empty row for a new session ID. A concurrent
// request creating the same ID wins quietly.
func (r *SessionRepositoryPostgres) CreateBare(ctx context.Context, sessionID string, now time.Time) error {
	query := `
		INSERT INTO sessions (session_id, data, user_id, last_touched)
		VALUES ($1, ''::bytea, NULL, $2)
		ON CONFLICT (session_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, now); err != nil {
		return fmt.Errorf("failed to create session row: %w", err)
	}
	return nil
}

// Touch refreshes last_touched on an existing row.
func (r *SessionRepositoryPostgres) Touch(ctx context.Context, sessionID string, now time.Time) error {
	query := `UPDATE sessions SET last_touched = $1 WHERE session_id = $2`
	result, err := r.pool.Exec(ctx, query, now, sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Upsert writes serialized session data. The write path never assumes the
// row still exists; GC may have removed it between read and write.
func (r *SessionRepositoryPostgres) Upsert(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID, now time.Time) error {
	query := `
		INSERT INTO sessions (session_id, data, user_id, last_touched)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET data = EXCLUDED.data,
		    user_id = EXCLUDED.user_id,
		    last_touched = EXCLUDED.last_touched
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, data, userID, now); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Delete removes a session row.
func (r *SessionRepositoryPostgres) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE session_id = $1`
	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteTouchedBefore removes rows idle past the cutoff.
func (r *SessionRepositoryPostgres) DeleteTouchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE last_touched < $1`
	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to garbage-collect sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ repository.SessionRepository = (*SessionRepositoryPostgres)(nil)
