package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/repository"
	"github.com/nlct/pass-auth/internal/utils/metrics"
)

// SessionStore is the database-backed session backend. Session data is an
// opaque byte blob; the store only manages persistence, touch times and
// expiry. Storage failures surface as errors so callers fail closed rather
// than silently continuing on an unsaved session.
type SessionStore interface {
	// Open prepares the store for a request cycle. The connection pool is
	// long-lived, so this is a no-op kept for lifecycle symmetry.
	Open(ctx context.Context) error

	// Close ends a request cycle. No-op, as Open.
	Close(ctx context.Context) error

	// Read returns the stored blob for a session ID, lazily creating an
	// empty row for IDs seen for the first time.
	Read(ctx context.Context, sessionID string) ([]byte, error)

	// Write persists the blob, tagging the row with the logged-in user
	// when there is one. The row is recreated if GC removed it mid-request.
	Write(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID) error

	// Destroy removes the session outright.
	Destroy(ctx context.Context, sessionID string) error

	// GC removes sessions idle longer than maxLifetime and returns how
	// many were removed.
	GC(ctx context.Context, maxLifetime time.Duration) (int64, error)
}

type sessionStoreImpl struct {
	sessionRepo repository.SessionRepository
	logger      *zap.Logger
}

// NewSessionStore creates a new sessionStoreImpl.
func NewSessionStore(sessionRepo repository.SessionRepository, logger *zap.Logger) SessionStore {
	return &sessionStoreImpl{
		sessionRepo: sessionRepo,
		logger:      logger.Named("session_store"),
	}
}

func (s *sessionStoreImpl) Open(ctx context.Context) error  { return nil }
func (s *sessionStoreImpl) Close(ctx context.Context) error { return nil }

func (s *sessionStoreImpl) Read(ctx context.Context, sessionID string) ([]byte, error) {
	record, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			if err := s.sessionRepo.CreateBare(ctx, sessionID, time.Now()); err != nil {
				return nil, err
			}
			return []byte{}, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if err := s.sessionRepo.Touch(ctx, sessionID, time.Now()); err != nil {
		// The row vanished between Get and Touch; the write path recreates it.
		if !domainErrors.IsNotFound(err) {
			return nil, err
		}
	}
	return record.Data, nil
}

func (s *sessionStoreImpl) Write(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID) error {
	if err := s.sessionRepo.Upsert(ctx, sessionID, data, userID, time.Now()); err != nil {
		return err
	}
	return nil
}

func (s *sessionStoreImpl) Destroy(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Debug("session destroyed", zap.String("session_id", sessionID))
	return nil
}

func (s *sessionStoreImpl) GC(ctx context.Context, maxLifetime time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxLifetime)
	deleted, err := s.sessionRepo.DeleteTouchedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		metrics.SessionsReapedTotal.Add(float64(deleted))
		s.logger.Info("expired sessions reaped", zap.Int64("count", deleted))
	}
	return deleted, nil
}

var _ SessionStore = (*sessionStoreImpl)(nil)
