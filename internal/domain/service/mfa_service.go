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

// Audit actions recorded by MFA management.
const (
	auditActionMFAKeyCreated = "mfa_key_created"
	auditActionMFAEnabled    = "mfa_enabled"
	auditActionMFADisabled   = "mfa_disabled"
)

// MFAService manages a user's authenticator enrolment. Every operation
// re-reads the user row; decisions are never made from a session snapshot
// that may predate a concurrent change.
type MFAService interface {
	// CreateTOTPKey provisions a fresh authenticator key, replacing any
	// unverified one, and returns the base32 secret plus the otpauth://
	// URL for the enrolment QR code. The key stays unverified until
	// Enable confirms a code generated from it.
	CreateTOTPKey(ctx context.Context, userID uuid.UUID) (string, string, error)

	// Enable turns the second factor on after confirming a code from the
	// provisioned key. A wrong code reports ErrInvalidCode and leaves the
	// enrolment state unchanged.
	Enable(ctx context.Context, userID uuid.UUID, code string) error

	// Disable turns the second factor off and discards the key, all
	// recovery codes and all device trust grants.
	Disable(ctx context.Context, userID uuid.UUID) error
}

type mfaServiceImpl struct {
	userRepo       repository.UserRepository
	totp           interfaces.TOTPService
	encryption     interfaces.EncryptionService
	notifier       interfaces.Notifier
	trustedDevices TrustedDeviceService
	recoveryCodes  RecoveryCodeService
	audit          AuditRecorder
	totpKeyHex     string
	issuerName     string
	logger         *zap.Logger
}

// MFAServiceDeps holds the collaborators of MFAService.
type MFAServiceDeps struct {
	UserRepo       repository.UserRepository
	TOTP           interfaces.TOTPService
	Encryption     interfaces.EncryptionService
	Notifier       interfaces.Notifier
	TrustedDevices TrustedDeviceService
	RecoveryCodes  RecoveryCodeService
	Audit          AuditRecorder
	TOTPKeyHex     string
	IssuerName     string
	Logger         *zap.Logger
}

// NewMFAService creates a new mfaServiceImpl.
func NewMFAService(deps MFAServiceDeps) MFAService {
	return &mfaServiceImpl{
		userRepo:       deps.UserRepo,
		totp:           deps.TOTP,
		encryption:     deps.Encryption,
		notifier:       deps.Notifier,
		trustedDevices: deps.TrustedDevices,
		recoveryCodes:  deps.RecoveryCodes,
		audit:          deps.Audit,
		totpKeyHex:     deps.TOTPKeyHex,
		issuerName:     deps.IssuerName,
		logger:         deps.Logger.Named("mfa_service"),
	}
}

func (s *mfaServiceImpl) CreateTOTPKey(ctx context.Context, userID uuid.UUID) (string, string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load user for key enrolment: %w", err)
	}

	secret, otpauthURL, err := s.totp.GenerateSecret(user.Username, s.issuerName)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate authenticator key: %w", err)
	}
	encrypted, err := s.encryption.Encrypt(secret, s.totpKeyHex)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt authenticator key: %w", err)
	}

	if err := s.userRepo.SetEncryptedTOTPSecret(ctx, user.ID, &encrypted); err != nil {
		return "", "", err
	}
	// A replaced key must be re-confirmed before it counts.
	if err := s.userRepo.UpdateMFA(ctx, user.ID, user.MFAEnabled, false); err != nil {
		return "", "", err
	}

	s.audit.Record(ctx, &user.ID, auditActionMFAKeyCreated, models.AuditStatusSuccess, nil)
	s.logger.Info("authenticator key provisioned", zap.String("user_id", user.ID.String()))
	return secret, otpauthURL, nil
}

func (s *mfaServiceImpl) Enable(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user for MFA enable: %w", err)
	}
	if !user.HasTOTPKey() {
		return domainErrors.ErrNoMFAKey
	}
	secret, err := s.encryption.Decrypt(*user.EncryptedTOTPSecret, s.totpKeyHex)
	if err != nil {
		return fmt.Errorf("failed to decrypt authenticator key for user %s: %w", user.ID, domainErrors.ErrDecryptFailed)
	}

	valid, err := s.totp.ValidateCode(secret, code)
	if err != nil {
		return fmt.Errorf("failed to validate authenticator code: %w", err)
	}
	if !valid {
		s.audit.Record(ctx, &user.ID, auditActionMFAEnabled, models.AuditStatusFailure,
			map[string]any{"reason": "bad_code"})
		return domainErrors.ErrInvalidCode
	}

	if err := s.userRepo.UpdateMFA(ctx, user.ID, true, true); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, auditActionMFAEnabled, models.AuditStatusSuccess, nil)
	if err := s.notifier.SendMFAStateChanged(ctx, user.Email, user.Username, true, true); err != nil {
		s.logger.Error("failed to send MFA enabled notice", zap.Error(err),
			zap.String("user_id", user.ID.String()))
	}
	return nil
}

func (s *mfaServiceImpl) Disable(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user for MFA disable: %w", err)
	}

	if err := s.userRepo.UpdateMFA(ctx, user.ID, false, false); err != nil {
		return err
	}
	if err := s.userRepo.SetEncryptedTOTPSecret(ctx, user.ID, nil); err != nil {
		return err
	}
	// Fallback codes and trust grants only make sense while the second
	// factor is on.
	if _, err := s.recoveryCodes.DeleteAll(ctx, user.ID); err != nil {
		return err
	}
	if _, err := s.trustedDevices.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, auditActionMFADisabled, models.AuditStatusSuccess, nil)
	if err := s.notifier.SendMFAStateChanged(ctx, user.Email, user.Username, false, false); err != nil {
		s.logger.Error("failed to send MFA disabled notice", zap.Error(err),
			zap.String("user_id", user.ID.String()))
	}
	return nil
}

var _ MFAService = (*mfaServiceImpl)(nil)
