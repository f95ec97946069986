package interfaces

// TOTPService wraps the time-based one-time password primitive.
type TOTPService interface {
	// GenerateSecret creates a new shared secret for accountName and returns
	// the base32 secret plus the otpauth:// provisioning URL.
	GenerateSecret(accountName string, issuerNameOverride string) (string, string, error)
	// ValidateCode checks code against the secret within the configured
	// clock-skew tolerance.
	ValidateCode(secretBase32 string, code string) (bool, error)
}
