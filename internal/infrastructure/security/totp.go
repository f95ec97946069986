package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/nlct/pass-auth/internal/domain/interfaces"
)

// pquernaTOTPService implements interfaces.TOTPService on pquerna/otp with
// the standard profile: 30 second period, six digits, SHA1, one period of
// clock skew either side.
type pquernaTOTPService struct {
	defaultIssuerName string
}

// NewTOTPService creates a new pquernaTOTPService. defaultIssuerName is the
// label authenticator apps show next to the account.
func NewTOTPService(defaultIssuerName string) interfaces.TOTPService {
	if strings.TrimSpace(defaultIssuerName) == "" {
		defaultIssuerName = "Assignment Portal"
	}
	return &pquernaTOTPService{defaultIssuerName: defaultIssuerName}
}

func (s *pquernaTOTPService) GenerateSecret(accountName string, issuerNameOverride string) (string, string, error) {
	issuer := s.defaultIssuerName
	if strings.TrimSpace(issuerNameOverride) != "" {
		issuer = issuerNameOverride
	}
	if strings.TrimSpace(accountName) == "" {
		return "", "", errors.New("account name cannot be empty")
	}
	// The otpauth label format reserves the colon as separator.
	if strings.Contains(accountName, ":") || strings.Contains(issuer, ":") {
		return "", "", errors.New("account and issuer names cannot contain a colon")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  20,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

func (s *pquernaTOTPService) ValidateCode(secretBase32 string, code string) (bool, error) {
	if strings.TrimSpace(secretBase32) == "" {
		return false, errors.New("secret cannot be empty")
	}

	valid, err := totp.ValidateCustom(code, secretBase32, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// A code of the wrong shape is just a wrong code.
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return false, nil
		}
		return false, fmt.Errorf("failed to validate TOTP code: %w", err)
	}
	return valid, nil
}

var _ interfaces.TOTPService = (*pquernaTOTPService)(nil)
