package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
	"github.com/nlct/pass-auth/internal/utils/metrics"
)

// A trust cookie value is 64 hex characters: a 32-character selector
// followed by a 32-character verifier. Anything else is treated as stale.
var trustCookiePattern = regexp.MustCompile(`^([0-9a-f]{32})([0-9a-f]{32})$`)

// Audit actions recorded by the credential flows.
const (
	auditActionLogin          = "login"
	auditActionSecondFactor   = "second_factor"
	auditActionRecoveryLogin  = "recovery_code_login"
	auditActionSessionRevoked = "session_terminated"
)

// VerifyOptions control a credential check. RequireSecondFactor is false
// for re-authentication prompts inside an already-verified session.
// TrustCookie, when present, lets a remembered device skip the second
// factor; the jar is also how a stale cookie gets cleared.
type VerifyOptions struct {
	RequireSecondFactor bool
	TrustCookie         interfaces.TrustCookieJar
}

// CredentialService performs password and second-factor verification. It
// returns immutable AuthContext snapshots; callers store them in the
// session rather than consulting any ambient login state.
type CredentialService interface {
	// VerifyCredentials checks an identifier/password pair. On success the
	// returned context's RequiresVerification flag says whether a second
	// factor is still owed.
	VerifyCredentials(ctx context.Context, identifier, password string, opts VerifyOptions) (*models.AuthContext, error)

	// VerifyTOTP checks an authenticator code for a password-verified
	// context. With trust set, the current device is remembered and the
	// cookie is queued on the jar. A wrong code is treated as a compromise
	// signal: the owner is alerted and the session is terminated.
	VerifyTOTP(ctx context.Context, auth *models.AuthContext, code string, trust bool, device models.DeviceFingerprint, jar interfaces.TrustCookieJar, term interfaces.SessionTerminator) (*models.AuthContext, error)

	// VerifyRecoveryCode burns a fallback code instead of a TOTP code.
	// Failure handling matches VerifyTOTP.
	VerifyRecoveryCode(ctx context.Context, auth *models.AuthContext, selector, verifier string, term interfaces.SessionTerminator) (*models.AuthContext, error)
}

type credentialServiceImpl struct {
	userRepo       repository.UserRepository
	passwords      interfaces.PasswordService
	totp           interfaces.TOTPService
	encryption     interfaces.EncryptionService
	notifier       interfaces.Notifier
	trustedDevices TrustedDeviceService
	recoveryCodes  RecoveryCodeService
	audit          AuditRecorder
	totpKeyHex     string
	trustTTL       time.Duration
	logger         *zap.Logger

	// dummyHash burns a password check when the identifier is unknown so
	// response timing does not reveal which usernames exist.
	dummyHash string
}

// CredentialServiceDeps holds the collaborators of CredentialService.
type CredentialServiceDeps struct {
	UserRepo       repository.UserRepository
	Passwords      interfaces.PasswordService
	TOTP           interfaces.TOTPService
	Encryption     interfaces.EncryptionService
	Notifier       interfaces.Notifier
	TrustedDevices TrustedDeviceService
	RecoveryCodes  RecoveryCodeService
	Audit          AuditRecorder
	TOTPKeyHex     string
	TrustTTL       time.Duration
	Logger         *zap.Logger
}

// NewCredentialService creates a new credentialServiceImpl.
func NewCredentialService(deps CredentialServiceDeps) (CredentialService, error) {
	dummy, err := deps.Passwords.HashPassword("pass-auth-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy password hash: %w", err)
	}
	return &credentialServiceImpl{
		userRepo:       deps.UserRepo,
		passwords:      deps.Passwords,
		totp:           deps.TOTP,
		encryption:     deps.Encryption,
		notifier:       deps.Notifier,
		trustedDevices: deps.TrustedDevices,
		recoveryCodes:  deps.RecoveryCodes,
		audit:          deps.Audit,
		totpKeyHex:     deps.TOTPKeyHex,
		trustTTL:       deps.TrustTTL,
		logger:         deps.Logger.Named("credential_service"),
		dummyHash:      dummy,
	}, nil
}

func (s *credentialServiceImpl) VerifyCredentials(ctx context.Context, identifier, password string, opts VerifyOptions) (*models.AuthContext, error) {
	user, err := s.lookupUser(ctx, identifier)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			// Burn a hash check anyway to keep timing uniform.
			_, _ = s.passwords.CheckPasswordHash(password, s.dummyHash)
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			s.audit.Record(ctx, nil, auditActionLogin, models.AuditStatusFailure,
				map[string]any{"reason": "unknown_identifier"})
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// The status gate runs before the password check. Blocked and pending
	// accounts are refused outright, whatever the supplied password.
	switch user.Status {
	case models.StatusBlocked:
		metrics.LoginAttemptsTotal.WithLabelValues("blocked").Inc()
		s.audit.Record(ctx, &user.ID, auditActionLogin, models.AuditStatusFailure,
			map[string]any{"reason": "account_blocked"})
		return nil, domainErrors.ErrAccountBlocked
	case models.StatusPending:
		metrics.LoginAttemptsTotal.WithLabelValues("pending").Inc()
		s.audit.Record(ctx, &user.ID, auditActionLogin, models.AuditStatusFailure,
			map[string]any{"reason": "account_pending"})
		return nil, domainErrors.ErrAccountPending
	}

	ok, err := s.passwords.CheckPasswordHash(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.audit.Record(ctx, &user.ID, auditActionLogin, models.AuditStatusFailure,
			map[string]any{"reason": "bad_password"})
		return nil, domainErrors.ErrInvalidCredentials
	}

	auth := models.NewAuthContext(user)
	if opts.RequireSecondFactor && user.MFAEnabled && user.MFAKeyVerified {
		auth.RequiresVerification = true
		if trusted := s.checkTrustCookie(ctx, user, opts.TrustCookie); trusted {
			auth.RequiresVerification = false
		}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.audit.Record(ctx, &user.ID, auditActionLogin, models.AuditStatusSuccess,
		map[string]any{"second_factor_pending": auth.RequiresVerification})
	return auth, nil
}

// lookupUser resolves an identifier that may be either a user id or a
// username.
func (s *credentialServiceImpl) lookupUser(ctx context.Context, identifier string) (*models.User, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return s.userRepo.FindByID(ctx, id)
	}
	return s.userRepo.FindByUsername(ctx, identifier)
}

// checkTrustCookie reports whether the request carried a live trust cookie
// for this user. Malformed, unknown and mismatching cookies are cleared.
func (s *credentialServiceImpl) checkTrustCookie(ctx context.Context, user *models.User, jar interfaces.TrustCookieJar) bool {
	if jar == nil {
		return false
	}
	value, ok := jar.Get()
	if !ok {
		return false
	}
	m := trustCookiePattern.FindStringSubmatch(value)
	if m == nil {
		jar.Clear()
		return false
	}
	matched, err := s.trustedDevices.MatchesCookie(ctx, user.ID, m[1], m[2])
	if err != nil {
		// Fail closed; the user answers the second factor instead.
		s.logger.Error("trust cookie check failed", zap.Error(err),
			zap.String("user_id", user.ID.String()))
		return false
	}
	if !matched {
		jar.Clear()
		return false
	}
	return true
}

func (s *credentialServiceImpl) VerifyTOTP(ctx context.Context, auth *models.AuthContext, code string, trust bool, device models.DeviceFingerprint, jar interfaces.TrustCookieJar, term interfaces.SessionTerminator) (*models.AuthContext, error) {
	if auth == nil {
		return nil, domainErrors.ErrPasswordNotVerified
	}

	user, err := s.userRepo.FindByID(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for second factor: %w", err)
	}
	if !user.HasTOTPKey() {
		return nil, domainErrors.ErrNoMFAKey
	}
	secret, err := s.encryption.Decrypt(*user.EncryptedTOTPSecret, s.totpKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt authenticator key for user %s: %w", user.ID, domainErrors.ErrDecryptFailed)
	}

	valid, err := s.totp.ValidateCode(secret, code)
	if err != nil {
		return nil, fmt.Errorf("failed to validate authenticator code: %w", err)
	}
	if !valid {
		return nil, s.handleSecondFactorFailure(ctx, user, "totp", term)
	}

	metrics.SecondFactorChecksTotal.WithLabelValues("totp", "success").Inc()
	s.audit.Record(ctx, &user.ID, auditActionSecondFactor, models.AuditStatusSuccess,
		map[string]any{"method": "totp"})

	if trust && jar != nil {
		cookie, row, err := s.trustedDevices.Create(ctx, user.ID, device, s.trustTTL)
		if err != nil {
			// Trust is a convenience; login still succeeds without it.
			s.logger.Error("failed to remember device", zap.Error(err),
				zap.String("user_id", user.ID.String()))
		} else {
			jar.Set(cookie, row.ExpiresAt)
		}
	}
	return auth.WithVerificationCleared(), nil
}

func (s *credentialServiceImpl) VerifyRecoveryCode(ctx context.Context, auth *models.AuthContext, selector, verifier string, term interfaces.SessionTerminator) (*models.AuthContext, error) {
	if auth == nil {
		return nil, domainErrors.ErrPasswordNotVerified
	}

	user, err := s.userRepo.FindByID(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for recovery login: %w", err)
	}

	if err := s.recoveryCodes.Consume(ctx, user.ID, selector, verifier); err != nil {
		if domainErrors.IsAuthenticationFailure(err) {
			return nil, s.handleSecondFactorFailure(ctx, user, "recovery_code", term)
		}
		return nil, err
	}

	metrics.SecondFactorChecksTotal.WithLabelValues("recovery_code", "success").Inc()
	s.audit.Record(ctx, &user.ID, auditActionRecoveryLogin, models.AuditStatusSuccess, nil)
	return auth.WithVerificationCleared(), nil
}

// handleSecondFactorFailure treats a wrong second factor as evidence the
// password is in the wrong hands: alert the owner, end the session, audit,
// and report the uniform failure.
func (s *credentialServiceImpl) handleSecondFactorFailure(ctx context.Context, user *models.User, method string, term interfaces.SessionTerminator) error {
	metrics.SecondFactorChecksTotal.WithLabelValues(method, "failure").Inc()

	meta := MetaFromContext(ctx)
	device := models.DeviceFingerprint{IP: meta.IPAddress}
	if err := s.notifier.SendSecondFactorFailedAlert(ctx, user.Email, user.Username, device); err != nil {
		s.logger.Error("failed to send compromise alert", zap.Error(err),
			zap.String("user_id", user.ID.String()))
	}

	s.audit.Record(ctx, &user.ID, auditActionSecondFactor, models.AuditStatusFailure,
		map[string]any{"method": method})

	if term != nil {
		if err := term.Terminate(ctx); err != nil {
			s.logger.Error("failed to terminate session after second factor failure",
				zap.Error(err), zap.String("user_id", user.ID.String()))
		} else {
			s.audit.Record(ctx, &user.ID, auditActionSessionRevoked, models.AuditStatusSuccess,
				map[string]any{"reason": "second_factor_failure"})
		}
	}
	return domainErrors.ErrInvalidCode
}

var _ CredentialService = (*credentialServiceImpl)(nil)
