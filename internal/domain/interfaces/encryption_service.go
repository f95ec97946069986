package interfaces

// EncryptionService reversibly encrypts the secrets that must be
// recoverable: TOTP keys, device fingerprints and recovery-code verifiers.
type EncryptionService interface {
	// Encrypt takes plaintext and a hex-encoded key, returns base64-encoded ciphertext.
	Encrypt(plainText string, keyHex string) (string, error)
	// Decrypt takes base64-encoded ciphertext and a hex-encoded key, returns plaintext.
	Decrypt(cipherTextBase64 string, keyHex string) (string, error)
}
