package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
func (m *MockUserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockUserRepository) UpdateMFA(ctx context.Context, id uuid.UUID, enabled, keyVerified bool) error {
	args := m.Called(ctx, id, enabled, keyVerified)
	return args.Error(0)
}
func (m *MockUserRepository) SetEncryptedTOTPSecret(ctx context.Context, id uuid.UUID, secret *string) error {
	args := m.Called(ctx, id, secret)
	return args.Error(0)
}

// MockAccountTokenRepository is a mock implementation of repository.AccountTokenRepository.
type MockAccountTokenRepository struct {
	mock.Mock
}

func (m *MockAccountTokenRepository) Create(ctx context.Context, token *models.AccountToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
func (m *MockAccountTokenRepository) FindValidBySelector(ctx context.Context, selector string, now time.Time) (*models.AccountToken, error) {
	args := m.Called(ctx, selector, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountToken), args.Error(1)
}
func (m *MockAccountTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAccountTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockTrustedDeviceRepository is a mock implementation of repository.TrustedDeviceRepository.
type MockTrustedDeviceRepository struct {
	mock.Mock
}

func (m *MockTrustedDeviceRepository) Create(ctx context.Context, device *models.TrustedDevice) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}
func (m *MockTrustedDeviceRepository) FindValidByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string, now time.Time) (*models.TrustedDevice, error) {
	args := m.Called(ctx, userID, selector, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrustedDevice), args.Error(1)
}
func (m *MockTrustedDeviceRepository) FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.TrustedDevice, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrustedDevice), args.Error(1)
}
func (m *MockTrustedDeviceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
func (m *MockTrustedDeviceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockRecoveryCodeRepository is a mock implementation of repository.RecoveryCodeRepository.
type MockRecoveryCodeRepository struct {
	mock.Mock
}

func (m *MockRecoveryCodeRepository) Create(ctx context.Context, code *models.RecoveryCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
func (m *MockRecoveryCodeRepository) FindByUserAndSelector(ctx context.Context, userID uuid.UUID, selector string) (*models.RecoveryCode, error) {
	args := m.Called(ctx, userID, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecoveryCode), args.Error(1)
}
func (m *MockRecoveryCodeRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.RecoveryCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RecoveryCode), args.Error(1)
}
func (m *MockRecoveryCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRecoveryCodeRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionRepository is a mock implementation of repository.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionRecord), args.Error(1)
}
func (m *MockSessionRepository) CreateBare(ctx context.Context, sessionID string, now time.Time) error {
	args := m.Called(ctx, sessionID, now)
	return args.Error(0)
}
func (m *MockSessionRepository) Touch(ctx context.Context, sessionID string, now time.Time) error {
	args := m.Called(ctx, sessionID, now)
	return args.Error(0)
}
func (m *MockSessionRepository) Upsert(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID, now time.Time) error {
	args := m.Called(ctx, sessionID, data, userID, now)
	return args.Error(0)
}
func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
func (m *MockSessionRepository) DeleteTouchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogRepository is a mock implementation of repository.AuditLogRepository.
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockEncryptionService is a mock implementation of interfaces.EncryptionService.
type MockEncryptionService struct {
	mock.Mock
}

func (m *MockEncryptionService) Encrypt(plainText string, keyHex string) (string, error) {
	args := m.Called(plainText, keyHex)
	return args.String(0), args.Error(1)
}
func (m *MockEncryptionService) Decrypt(cipherTextBase64 string, keyHex string) (string, error) {
	args := m.Called(cipherTextBase64, keyHex)
	return args.String(0), args.Error(1)
}

// MockPasswordService is a mock implementation of interfaces.PasswordService.
type MockPasswordService struct {
	mock.Mock
}

func (m *MockPasswordService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}
func (m *MockPasswordService) CheckPasswordHash(password, encodedHash string) (bool, error) {
	args := m.Called(password, encodedHash)
	return args.Bool(0), args.Error(1)
}

// MockTOTPService is a mock implementation of interfaces.TOTPService.
type MockTOTPService struct {
	mock.Mock
}

func (m *MockTOTPService) GenerateSecret(accountName string, issuerNameOverride string) (string, string, error) {
	args := m.Called(accountName, issuerNameOverride)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockTOTPService) ValidateCode(secretBase32 string, code string) (bool, error) {
	args := m.Called(secretBase32, code)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock implementation of interfaces.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSecondFactorFailedAlert(ctx context.Context, email, username string, device models.DeviceFingerprint) error {
	args := m.Called(ctx, email, username, device)
	return args.Error(0)
}
func (m *MockNotifier) SendVerificationLink(ctx context.Context, email, username, link string, validFor time.Duration) error {
	args := m.Called(ctx, email, username, link, validFor)
	return args.Error(0)
}
func (m *MockNotifier) SendPasswordResetLink(ctx context.Context, email, username, link string, validFor time.Duration) error {
	args := m.Called(ctx, email, username, link, validFor)
	return args.Error(0)
}
func (m *MockNotifier) SendPasswordChanged(ctx context.Context, email, username string) error {
	args := m.Called(ctx, email, username)
	return args.Error(0)
}
func (m *MockNotifier) SendMFAStateChanged(ctx context.Context, email, username string, enabled, keyVerified bool) error {
	args := m.Called(ctx, email, username, enabled, keyVerified)
	return args.Error(0)
}

// MockTrustCookieJar is a mock implementation of interfaces.TrustCookieJar.
type MockTrustCookieJar struct {
	mock.Mock
}

func (m *MockTrustCookieJar) Get() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}
func (m *MockTrustCookieJar) Set(value string, expiresAt time.Time) {
	m.Called(value, expiresAt)
}
func (m *MockTrustCookieJar) Clear() {
	m.Called()
}

// MockSessionTerminator is a mock implementation of interfaces.SessionTerminator.
type MockSessionTerminator struct {
	mock.Mock
}

func (m *MockSessionTerminator) Terminate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTrustedDeviceService is a mock implementation of TrustedDeviceService.
type MockTrustedDeviceService struct {
	mock.Mock
}

func (m *MockTrustedDeviceService) Create(ctx context.Context, userID uuid.UUID, device models.DeviceFingerprint, ttl time.Duration) (string, *models.TrustedDevice, error) {
	args := m.Called(ctx, userID, device, ttl)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.TrustedDevice), args.Error(2)
}
func (m *MockTrustedDeviceService) MatchesCookie(ctx context.Context, userID uuid.UUID, selector, verifier string) (bool, error) {
	args := m.Called(ctx, userID, selector, verifier)
	return args.Bool(0), args.Error(1)
}
func (m *MockTrustedDeviceService) List(ctx context.Context, userID uuid.UUID) ([]*models.TrustedDeviceInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrustedDeviceInfo), args.Error(1)
}
func (m *MockTrustedDeviceService) Revoke(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) (int, error) {
	callArgs := make([]interface{}, 0, len(ids)+2)
	callArgs = append(callArgs, ctx, userID)
	for _, id := range ids {
		callArgs = append(callArgs, id)
	}
	args := m.Called(callArgs...)
	return args.Int(0), args.Error(1)
}
func (m *MockTrustedDeviceService) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRecoveryCodeService is a mock implementation of RecoveryCodeService.
type MockRecoveryCodeService struct {
	mock.Mock
}

func (m *MockRecoveryCodeService) Generate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockRecoveryCodeService) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockRecoveryCodeService) Consume(ctx context.Context, userID uuid.UUID, selector, verifier string) error {
	args := m.Called(ctx, userID, selector, verifier)
	return args.Error(0)
}
func (m *MockRecoveryCodeService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccountTokenService is a mock implementation of AccountTokenService.
type MockAccountTokenService struct {
	mock.Mock
}

func (m *MockAccountTokenService) Create(ctx context.Context, userID uuid.UUID, timeout time.Duration) (string, error) {
	args := m.Called(ctx, userID, timeout)
	return args.String(0), args.Error(1)
}
func (m *MockAccountTokenService) Verify(ctx context.Context, combined string) (*models.AccountTokenClaims, error) {
	args := m.Called(ctx, combined)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountTokenClaims), args.Error(1)
}
func (m *MockAccountTokenService) Delete(ctx context.Context, tokenID uuid.UUID) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// MockAuditRecorder is a mock implementation of AuditRecorder. Tests that
// do not assert on audit calls should allow them with allowAnyRecord.
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, userID *uuid.UUID, action string, status models.AuditStatus, details map[string]any) {
	m.Called(ctx, userID, action, status, details)
}

func (m *MockAuditRecorder) allowAnyRecord() {
	m.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
}
