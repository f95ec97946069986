package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// RecoveryCodeBatchSize is how many codes one generation produces.
const RecoveryCodeBatchSize = 10

// RecoveryCodeService manages the single-use fallback codes for users who
// lose their authenticator. Codes display as "xxxxxx-xxxxxx": selector,
// dash, verifier. The verifier is stored reversibly encrypted so the
// outstanding batch can be shown again on request.
type RecoveryCodeService interface {
	// Generate replaces the user's outstanding batch with a fresh one and
	// returns the display strings. The old batch is invalidated first, so
	// a storage failure partway leaves fewer codes rather than stale ones.
	Generate(ctx context.Context, userID uuid.UUID) ([]string, error)

	// List re-displays the outstanding batch.
	List(ctx context.Context, userID uuid.UUID) ([]string, error)

	// Consume burns one code. Any failure to match reports ErrInvalidCode.
	Consume(ctx context.Context, userID uuid.UUID, selector, verifier string) error

	// DeleteAll removes every code the user holds.
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type recoveryCodeServiceImpl struct {
	codeRepo   repository.RecoveryCodeRepository
	tokens     TokenService
	encryption interfaces.EncryptionService
	keyHex     string
	logger     *zap.Logger
}

// NewRecoveryCodeService creates a new recoveryCodeServiceImpl. keyHex is
// the hex-encoded key used to encrypt stored verifiers.
func NewRecoveryCodeService(
	codeRepo repository.RecoveryCodeRepository,
	tokens TokenService,
	encryption interfaces.EncryptionService,
	keyHex string,
	logger *zap.Logger,
) RecoveryCodeService {
	return &recoveryCodeServiceImpl{
		codeRepo:   codeRepo,
		tokens:     tokens,
		encryption: encryption,
		keyHex:     keyHex,
		logger:     logger.Named("recovery_code_service"),
	}
}

func (s *recoveryCodeServiceImpl) Generate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if _, err := s.codeRepo.DeleteAllForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous recovery codes: %w", err)
	}

	display := make([]string, 0, RecoveryCodeBatchSize)
	for i := 0; i < RecoveryCodeBatchSize; i++ {
		selector, err := s.tokens.GenerateToken(3)
		if err != nil {
			return nil, err
		}
		verifier, err := s.tokens.GenerateToken(3)
		if err != nil {
			return nil, err
		}
		encrypted, err := s.encryption.Encrypt(verifier, s.keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt recovery code verifier: %w", err)
		}
		code := &models.RecoveryCode{
			ID:                uuid.New(),
			UserID:            userID,
			Selector:          selector,
			EncryptedVerifier: encrypted,
		}
		if err := s.codeRepo.Create(ctx, code); err != nil {
			return nil, fmt.Errorf("failed to store recovery code: %w", err)
		}
		display = append(display, selector+"-"+verifier)
	}

	s.logger.Info("recovery code batch generated",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(display)),
	)
	return display, nil
}

func (s *recoveryCodeServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.codeRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	display := make([]string, 0, len(rows))
	for _, row := range rows {
		verifier, err := s.encryption.Decrypt(row.EncryptedVerifier, s.keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt recovery code %s: %w", row.ID, domainErrors.ErrDecryptFailed)
		}
		display = append(display, row.Selector+"-"+verifier)
	}
	return display, nil
}

func (s *recoveryCodeServiceImpl) Consume(ctx context.Context, userID uuid.UUID, selector, verifier string) error {
	row, err := s.codeRepo.FindByUserAndSelector(ctx, userID, selector)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return domainErrors.ErrInvalidCode
		}
		return fmt.Errorf("failed to look up recovery code: %w", err)
	}
	stored, err := s.encryption.Decrypt(row.EncryptedVerifier, s.keyHex)
	if err != nil {
		return fmt.Errorf("failed to decrypt recovery code %s: %w", row.ID, domainErrors.ErrDecryptFailed)
	}
	if !s.tokens.ConstantTimeEqual(stored, verifier) {
		return domainErrors.ErrInvalidCode
	}
	if err := s.codeRepo.Delete(ctx, row.ID); err != nil {
		if domainErrors.IsNotFound(err) {
			// A concurrent attempt consumed it first; single use holds.
			return domainErrors.ErrInvalidCode
		}
		return fmt.Errorf("failed to consume recovery code: %w", err)
	}
	s.logger.Info("recovery code consumed", zap.String("user_id", userID.String()))
	return nil
}

func (s *recoveryCodeServiceImpl) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.codeRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete recovery codes: %w", err)
	}
	return n, nil
}

var _ RecoveryCodeService = (*recoveryCodeServiceImpl)(nil)
