package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// TrustedDeviceService manages the remembered-device grants that let a
// browser skip the second factor. The cookie value handed to the browser is
// selector+verifier; only the binding hash of the verifier is stored.
type TrustedDeviceService interface {
	// Create issues a new grant for the device and returns the cookie value
	// together with the stored row.
	Create(ctx context.Context, userID uuid.UUID, device models.DeviceFingerprint, ttl time.Duration) (string, *models.TrustedDevice, error)

	// MatchesCookie reports whether a parsed cookie corresponds to a live
	// grant. An unknown or expired selector is a mismatch, not an error.
	MatchesCookie(ctx context.Context, userID uuid.UUID, selector, verifier string) (bool, error)

	// List returns the user's live grants with decrypted device details.
	List(ctx context.Context, userID uuid.UUID) ([]*models.TrustedDeviceInfo, error)

	// Revoke removes grants by ID and returns how many were removed.
	// Unknown IDs are skipped.
	Revoke(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) (int, error)

	// RevokeAll removes every grant the user holds.
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type trustedDeviceServiceImpl struct {
	deviceRepo repository.TrustedDeviceRepository
	tokens     TokenService
	encryption interfaces.EncryptionService
	keyHex     string
	logger     *zap.Logger
}

// NewTrustedDeviceService creates a new trustedDeviceServiceImpl. keyHex is
// the hex-encoded key used to encrypt stored device fingerprints.
func NewTrustedDeviceService(
	deviceRepo repository.TrustedDeviceRepository,
	tokens TokenService,
	encryption interfaces.EncryptionService,
	keyHex string,
	logger *zap.Logger,
) TrustedDeviceService {
	return &trustedDeviceServiceImpl{
		deviceRepo: deviceRepo,
		tokens:     tokens,
		encryption: encryption,
		keyHex:     keyHex,
		logger:     logger.Named("trusted_device_service"),
	}
}

func (s *trustedDeviceServiceImpl) Create(ctx context.Context, userID uuid.UUID, device models.DeviceFingerprint, ttl time.Duration) (string, *models.TrustedDevice, error) {
	selector, err := s.tokens.GenerateToken(16)
	if err != nil {
		return "", nil, err
	}
	verifier, err := s.tokens.GenerateToken(16)
	if err != nil {
		return "", nil, err
	}
	expiresAt := time.Now().Add(ttl)

	deviceJSON, err := json.Marshal(device)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal device fingerprint: %w", err)
	}
	encrypted, err := s.encryption.Encrypt(string(deviceJSON), s.keyHex)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encrypt device fingerprint: %w", err)
	}

	row := &models.TrustedDevice{
		ID:              uuid.New(),
		UserID:          userID,
		Selector:        selector,
		HashedVerifier:  s.tokens.HashedVerifier(verifier, userID, expiresAt),
		EncryptedDevice: encrypted,
		ExpiresAt:       expiresAt,
	}
	if err := s.deviceRepo.Create(ctx, row); err != nil {
		return "", nil, fmt.Errorf("failed to store trusted device: %w", err)
	}

	s.logger.Info("device trust granted",
		zap.String("user_id", userID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return selector + verifier, row, nil
}

func (s *trustedDeviceServiceImpl) MatchesCookie(ctx context.Context, userID uuid.UUID, selector, verifier string) (bool, error) {
	row, err := s.deviceRepo.FindValidByUserAndSelector(ctx, userID, selector, time.Now())
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up trusted device: %w", err)
	}
	expected := s.tokens.HashedVerifier(verifier, userID, row.ExpiresAt)
	return s.tokens.ConstantTimeEqual(expected, row.HashedVerifier), nil
}

func (s *trustedDeviceServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*models.TrustedDeviceInfo, error) {
	rows, err := s.deviceRepo.FindValidByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	infos := make([]*models.TrustedDeviceInfo, 0, len(rows))
	for _, row := range rows {
		info := &models.TrustedDeviceInfo{
			ID:        row.ID,
			ExpiresAt: row.ExpiresAt,
			CreatedAt: row.CreatedAt,
		}
		plain, err := s.encryption.Decrypt(row.EncryptedDevice, s.keyHex)
		if err != nil {
			// A row we cannot decrypt is still listed so it can be revoked.
			s.logger.Warn("failed to decrypt trusted device details",
				zap.Error(err),
				zap.String("device_id", row.ID.String()),
			)
		} else if err := json.Unmarshal([]byte(plain), &info.Device); err != nil {
			s.logger.Warn("failed to decode trusted device details",
				zap.Error(err),
				zap.String("device_id", row.ID.String()),
			)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *trustedDeviceServiceImpl) Revoke(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) (int, error) {
	revoked := 0
	for _, id := range ids {
		err := s.deviceRepo.Delete(ctx, userID, id)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return revoked, fmt.Errorf("failed to revoke trusted device %s: %w", id, err)
		}
		revoked++
	}
	if revoked > 0 {
		s.logger.Info("device trust revoked",
			zap.String("user_id", userID.String()),
			zap.Int("count", revoked),
		)
	}
	return revoked, nil
}

func (s *trustedDeviceServiceImpl) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	rows, err := s.deviceRepo.FindValidByUser(ctx, userID, time.Now())
	if err != nil {
		return 0, err
	}
	var revoked int64
	for _, row := range rows {
		if err := s.deviceRepo.Delete(ctx, userID, row.ID); err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return revoked, fmt.Errorf("failed to revoke trusted device %s: %w", row.ID, err)
		}
		revoked++
	}
	return revoked, nil
}

var _ TrustedDeviceService = (*trustedDeviceServiceImpl)(nil)
