package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
)

type mfaFixture struct {
	userRepo       *MockUserRepository
	totp           *MockTOTPService
	encryption     *MockEncryptionService
	notifier       *MockNotifier
	trustedDevices *MockTrustedDeviceService
	recoveryCodes  *MockRecoveryCodeService
	audit          *MockAuditRecorder
	svc            MFAService
}

func newMFAFixture() *mfaFixture {
	f := &mfaFixture{
		userRepo:       new(MockUserRepository),
		totp:           new(MockTOTPService),
		encryption:     new(MockEncryptionService),
		notifier:       new(MockNotifier),
		trustedDevices: new(MockTrustedDeviceService),
		recoveryCodes:  new(MockRecoveryCodeService),
		audit:          new(MockAuditRecorder),
	}
	f.audit.allowAnyRecord()
	f.svc = NewMFAService(MFAServiceDeps{
		UserRepo:       f.userRepo,
		TOTP:           f.totp,
		Encryption:     f.encryption,
		Notifier:       f.notifier,
		TrustedDevices: f.trustedDevices,
		RecoveryCodes:  f.recoveryCodes,
		Audit:          f.audit,
		TOTPKeyHex:     testTOTPKeyHex,
		IssuerName:     "Assignment Portal",
		Logger:         zap.NewNop(),
	})
	return f
}

func TestMFAService_CreateTOTPKey(t *testing.T) {
	f := newMFAFixture()
	user := activeUser()

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.totp.On("GenerateSecret", user.Username, "Assignment Portal").
		Return("BASE32SECRET", "otpauth://totp/...", nil)
	f.encryption.On("Encrypt", "BASE32SECRET", testTOTPKeyHex).Return("encrypted", nil)
	encrypted := "encrypted"
	f.userRepo.On("SetEncryptedTOTPSecret", mock.Anything, user.ID, &encrypted).Return(nil)
	f.userRepo.On("UpdateMFA", mock.Anything, user.ID, false, false).Return(nil)

	secret, url, err := f.svc.CreateTOTPKey(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "BASE32SECRET", secret)
	assert.Equal(t, "otpauth://totp/...", url)
	f.userRepo.AssertExpectations(t)
}

func TestMFAService_CreateTOTPKey_ReplacementForcesReconfirmation(t *testing.T) {
	f := newMFAFixture()
	user := mfaUser()

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.totp.On("GenerateSecret", user.Username, "Assignment Portal").
		Return("NEWSECRET", "otpauth://totp/...", nil)
	f.encryption.On("Encrypt", "NEWSECRET", testTOTPKeyHex).Return("encrypted", nil)
	f.userRepo.On("SetEncryptedTOTPSecret", mock.Anything, user.ID, mock.Anything).Return(nil)
	// MFA stays enabled but the new key is unverified until confirmed.
	f.userRepo.On("UpdateMFA", mock.Anything, user.ID, true, false).Return(nil)

	_, _, err := f.svc.CreateTOTPKey(context.Background(), user.ID)
	require.NoError(t, err)
	f.userRepo.AssertCalled(t, "UpdateMFA", mock.Anything, user.ID, true, false)
}

func TestMFAService_Enable(t *testing.T) {
	f := newMFAFixture()
	user := mfaUser()
	user.MFAEnabled = false
	user.MFAKeyVerified = false

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.encryption.On("Decrypt", "encrypted-secret", testTOTPKeyHex).Return("BASE32SECRET", nil)
	f.totp.On("ValidateCode", "BASE32SECRET", "123456").Return(true, nil)
	f.userRepo.On("UpdateMFA", mock.Anything, user.ID, true, true).Return(nil)
	f.notifier.On("SendMFAStateChanged", mock.Anything, user.Email, user.Username, true, true).
		Return(nil)

	require.NoError(t, f.svc.Enable(context.Background(), user.ID, "123456"))
	f.userRepo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestMFAService_Enable_WrongCode(t *testing.T) {
	f := newMFAFixture()
	user := mfaUser()

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.encryption.On("Decrypt", "encrypted-secret", testTOTPKeyHex).Return("BASE32SECRET", nil)
	f.totp.On("ValidateCode", "BASE32SECRET", "000000").Return(false, nil)

	err := f.svc.Enable(context.Background(), user.ID, "000000")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidCode)
	f.userRepo.AssertNotCalled(t, "UpdateMFA", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMFAService_Enable_NoKey(t *testing.T) {
	f := newMFAFixture()
	user := activeUser()

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	err := f.svc.Enable(context.Background(), user.ID, "123456")
	assert.ErrorIs(t, err, domainErrors.ErrNoMFAKey)
}

func TestMFAService_Disable(t *testing.T) {
	f := newMFAFixture()
	user := mfaUser()

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.userRepo.On("UpdateMFA", mock.Anything, user.ID, false, false).Return(nil)
	f.userRepo.On("SetEncryptedTOTPSecret", mock.Anything, user.ID, (*string)(nil)).Return(nil)
	f.recoveryCodes.On("DeleteAll", mock.Anything, user.ID).Return(int64(10), nil)
	f.trustedDevices.On("RevokeAll", mock.Anything, user.ID).Return(int64(2), nil)
	f.notifier.On("SendMFAStateChanged", mock.Anything, user.Email, user.Username, false, false).
		Return(nil)

	require.NoError(t, f.svc.Disable(context.Background(), user.ID))
	f.recoveryCodes.AssertCalled(t, "DeleteAll", mock.Anything, user.ID)
	f.trustedDevices.AssertCalled(t, "RevokeAll", mock.Anything, user.ID)
	f.userRepo.AssertExpectations(t)
}
