package interfaces

import (
	"context"
	"time"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// Notifier sends the outbound email alerts the auth layer triggers.
// Composition and delivery details live in infrastructure; the auth layer
// only decides when an alert goes out.
type Notifier interface {
	// SendSecondFactorFailedAlert warns the account owner that a password
	// holder failed the second factor; treated as a compromise signal.
	SendSecondFactorFailedAlert(ctx context.Context, email, username string, device models.DeviceFingerprint) error
	SendVerificationLink(ctx context.Context, email, username, link string, validFor time.Duration) error
	SendPasswordResetLink(ctx context.Context, email, username, link string, validFor time.Duration) error
	SendPasswordChanged(ctx context.Context, email, username string) error
	// SendMFAStateChanged notifies after enabling or disabling the second
	// factor. keyVerified is false when MFA was switched on before the
	// authenticator key was confirmed.
	SendMFAStateChanged(ctx context.Context, email, username string, enabled, keyVerified bool) error
}
