package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
	"github.com/nlct/pass-auth/internal/utils/metrics"
)

// An account link token is 64 hex characters: a 32-character selector
// followed by a 32-character verifier.
var accountTokenPattern = regexp.MustCompile(`^([0-9a-f]{32})([0-9a-f]{32})$`)

// AccountTokenService issues and checks the single-use tokens embedded in
// email verification and password reset links. The same table serves both
// flows; what a valid token means is decided by the owner's current account
// status, so a verification link cannot outlive its purpose and become a
// reset link only while the account is still pending.
type AccountTokenService interface {
	// Create issues a fresh token for the user, invalidating any earlier
	// one, and returns the combined selector+verifier string for the link.
	Create(ctx context.Context, userID uuid.UUID, timeout time.Duration) (string, error)

	// Verify checks a combined token string and resolves it to the owning
	// user. All failures collapse into ErrTokenInvalidOrExpired.
	Verify(ctx context.Context, combined string) (*models.AccountTokenClaims, error)

	// Delete consumes a verified token.
	Delete(ctx context.Context, tokenID uuid.UUID) error
}

type accountTokenServiceImpl struct {
	tokenRepo repository.AccountTokenRepository
	userRepo  repository.UserRepository
	tokens    TokenService
	logger    *zap.Logger
}

// NewAccountTokenService creates a new accountTokenServiceImpl.
func NewAccountTokenService(
	tokenRepo repository.AccountTokenRepository,
	userRepo repository.UserRepository,
	tokens TokenService,
	logger *zap.Logger,
) AccountTokenService {
	return &accountTokenServiceImpl{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		tokens:    tokens,
		logger:    logger.Named("account_token_service"),
	}
}

func (s *accountTokenServiceImpl) Create(ctx context.Context, userID uuid.UUID, timeout time.Duration) (string, error) {
	selector, err := s.tokens.GenerateToken(16)
	if err != nil {
		return "", err
	}
	verifier, err := s.tokens.GenerateToken(16)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(timeout)

	token := &models.AccountToken{
		ID:             uuid.New(),
		UserID:         userID,
		Selector:       selector,
		HashedVerifier: s.tokens.HashedVerifier(verifier, userID, expiresAt),
		ExpiresAt:      expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store account token: %w", err)
	}

	metrics.AccountTokensIssuedTotal.Inc()
	s.logger.Info("account token issued",
		zap.String("user_id", userID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return selector + verifier, nil
}

func (s *accountTokenServiceImpl) Verify(ctx context.Context, combined string) (*models.AccountTokenClaims, error) {
	m := accountTokenPattern.FindStringSubmatch(combined)
	if m == nil {
		return nil, domainErrors.ErrTokenInvalidOrExpired
	}
	selector, verifier := m[1], m[2]

	token, err := s.tokenRepo.FindValidBySelector(ctx, selector, time.Now())
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, domainErrors.ErrTokenInvalidOrExpired
		}
		return nil, fmt.Errorf("failed to look up account token: %w", err)
	}

	expected := s.tokens.HashedVerifier(verifier, token.UserID, token.ExpiresAt)
	if !s.tokens.ConstantTimeEqual(expected, token.HashedVerifier) {
		return nil, domainErrors.ErrTokenInvalidOrExpired
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			// Owner deleted since issuance; the token is dead.
			return nil, domainErrors.ErrTokenInvalidOrExpired
		}
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	return &models.AccountTokenClaims{
		UserID:   user.ID,
		TokenID:  token.ID,
		Username: user.Username,
		Status:   user.Status,
	}, nil
}

func (s *accountTokenServiceImpl) Delete(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to consume account token: %w", err)
	}
	return nil
}

var _ AccountTokenService = (*accountTokenServiceImpl)(nil)
