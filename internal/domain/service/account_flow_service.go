package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// Audit actions recorded by the account flows.
const (
	auditActionResetRequested = "password_reset_requested"
	auditActionPasswordReset  = "password_reset"
	auditActionAccountVerify  = "account_verified"
	auditActionVerifyResent   = "verification_resent"
)

// AccountFlowConfig carries the link lifetimes and landing URLs for the
// emailed account flows.
type AccountFlowConfig struct {
	ResetLinkTimeout  time.Duration
	VerifyLinkTimeout time.Duration
	ResetURL          string
	VerifyURL         string
}

// AccountFlowService runs the emailed account flows: password reset and
// new-account verification. Both ride the same token table; which flow a
// presented token belongs to follows from the owner's current status, so
// a pending account's link verifies it and an active account's link resets
// the password.
type AccountFlowService interface {
	// RequestPasswordReset emails a reset link. For accounts still pending
	// a fresh verification link goes out instead. Unknown identifiers
	// return nil so responses do not reveal which accounts exist.
	RequestPasswordReset(ctx context.Context, identifier string) error

	// ResetPassword consumes a reset token and installs the new password.
	ResetPassword(ctx context.Context, combined, newPassword string) error

	// VerifyAccount consumes a verification token and activates the account.
	VerifyAccount(ctx context.Context, combined string) error

	// ResendVerification emails a fresh verification link to a pending
	// account. Unknown identifiers and already-active accounts return nil.
	ResendVerification(ctx context.Context, identifier string) error
}

type accountFlowServiceImpl struct {
	userRepo      repository.UserRepository
	accountTokens AccountTokenService
	passwords     interfaces.PasswordService
	notifier      interfaces.Notifier
	audit         AuditRecorder
	cfg           AccountFlowConfig
	logger        *zap.Logger
}

// NewAccountFlowService creates a new accountFlowServiceImpl.
func NewAccountFlowService(
	userRepo repository.UserRepository,
	accountTokens AccountTokenService,
	passwords interfaces.PasswordService,
	notifier interfaces.Notifier,
	audit AuditRecorder,
	cfg AccountFlowConfig,
	logger *zap.Logger,
) AccountFlowService {
	return &accountFlowServiceImpl{
		userRepo:      userRepo,
		accountTokens: accountTokens,
		passwords:     passwords,
		notifier:      notifier,
		audit:         audit,
		cfg:           cfg,
		logger:        logger.Named("account_flow_service"),
	}
}

func buildLink(base, token string) string {
	return base + "?token=" + url.QueryEscape(token)
}

func (s *accountFlowServiceImpl) RequestPasswordReset(ctx context.Context, identifier string) error {
	user, err := s.userRepo.FindByUsername(ctx, identifier)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			s.logger.Info("password reset requested for unknown identifier")
			return nil
		}
		return fmt.Errorf("failed to look up user for password reset: %w", err)
	}

	switch user.Status {
	case models.StatusBlocked:
		// Silent; a blocked account cannot be recovered by email.
		return nil
	case models.StatusPending:
		return s.sendVerificationLink(ctx, user)
	}

	combined, err := s.accountTokens.Create(ctx, user.ID, s.cfg.ResetLinkTimeout)
	if err != nil {
		return err
	}
	link := buildLink(s.cfg.ResetURL, combined)
	if err := s.notifier.SendPasswordResetLink(ctx, user.Email, user.Username, link, s.cfg.ResetLinkTimeout); err != nil {
		return fmt.Errorf("failed to send password reset link: %w", err)
	}

	s.audit.Record(ctx, &user.ID, auditActionResetRequested, models.AuditStatusSuccess, nil)
	return nil
}

func (s *accountFlowServiceImpl) ResetPassword(ctx context.Context, combined, newPassword string) error {
	claims, err := s.accountTokens.Verify(ctx, combined)
	if err != nil {
		return err
	}
	// A pending owner's token belongs to the verification flow.
	if claims.Status != models.StatusActive {
		return domainErrors.ErrTokenInvalidOrExpired
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		return err
	}
	if err := s.accountTokens.Delete(ctx, claims.TokenID); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err == nil {
		if err := s.notifier.SendPasswordChanged(ctx, user.Email, user.Username); err != nil {
			s.logger.Error("failed to send password changed notice", zap.Error(err),
				zap.String("user_id", user.ID.String()))
		}
	}

	s.audit.Record(ctx, &claims.UserID, auditActionPasswordReset, models.AuditStatusSuccess, nil)
	return nil
}

func (s *accountFlowServiceImpl) VerifyAccount(ctx context.Context, combined string) error {
	claims, err := s.accountTokens.Verify(ctx, combined)
	if err != nil {
		return err
	}
	// An active owner's token belongs to the reset flow.
	if claims.Status != models.StatusPending {
		return domainErrors.ErrTokenInvalidOrExpired
	}

	if err := s.userRepo.UpdateStatus(ctx, claims.UserID, models.StatusActive); err != nil {
		return err
	}
	if err := s.accountTokens.Delete(ctx, claims.TokenID); err != nil {
		return err
	}

	s.audit.Record(ctx, &claims.UserID, auditActionAccountVerify, models.AuditStatusSuccess, nil)
	s.logger.Info("account verified", zap.String("user_id", claims.UserID.String()))
	return nil
}

func (s *accountFlowServiceImpl) ResendVerification(ctx context.Context, identifier string) error {
	user, err := s.userRepo.FindByUsername(ctx, identifier)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up user for verification resend: %w", err)
	}
	if user.Status != models.StatusPending {
		return nil
	}
	return s.sendVerificationLink(ctx, user)
}

func (s *accountFlowServiceImpl) sendVerificationLink(ctx context.Context, user *models.User) error {
	combined, err := s.accountTokens.Create(ctx, user.ID, s.cfg.VerifyLinkTimeout)
	if err != nil {
		return err
	}
	link := buildLink(s.cfg.VerifyURL, combined)
	if err := s.notifier.SendVerificationLink(ctx, user.Email, user.Username, link, s.cfg.VerifyLinkTimeout); err != nil {
		return fmt.Errorf("failed to send verification link: %w", err)
	}
	s.audit.Record(ctx, &user.ID, auditActionVerifyResent, models.AuditStatusSuccess, nil)
	return nil
}

var _ AccountFlowService = (*accountFlowServiceImpl)(nil)
