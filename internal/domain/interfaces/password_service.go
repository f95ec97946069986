package interfaces

// PasswordService hashes and verifies passwords. Verification must be
// timing safe.
type PasswordService interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, encodedHash string) (bool, error)
}
