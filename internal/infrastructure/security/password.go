package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/nlct/pass-auth/internal/domain/interfaces"
)

var (
	// ErrInvalidHash reports an encoded hash that is not in the
	// $argon2id$v=19$m=..,t=..,p=..$salt$hash format.
	ErrInvalidHash = errors.New("encoded hash is not in the expected format")
	// ErrIncompatibleVersion reports a hash produced by a different argon2
	// version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Argon2Params hold the cost settings for Argon2id hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the cost settings used for new hashes.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// argon2PasswordService implements interfaces.PasswordService with Argon2id.
// Verification decodes the parameters stored in the hash itself, so cost
// settings can change without invalidating existing passwords.
type argon2PasswordService struct {
	params Argon2Params
}

// NewArgon2PasswordService creates a new argon2PasswordService.
func NewArgon2PasswordService(params Argon2Params) interfaces.PasswordService {
	return &argon2PasswordService{params: params}
}

func (s *argon2PasswordService) HashPassword(password string) (string, error) {
	salt := make([]byte, s.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password), salt,
		s.params.Iterations, s.params.Memory, s.params.Parallelism, s.params.KeyLength,
	)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.Memory, s.params.Iterations, s.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

func (s *argon2PasswordService) CheckPasswordHash(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey(
		[]byte(password), salt,
		params.Iterations, params.Memory, params.Parallelism, params.KeyLength,
	)
	return subtle.ConstantTimeCompare(hash, other) == 1, nil
}

func decodeArgon2Hash(encodedHash string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return params, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	params.SaltLength = uint32(len(salt))

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	params.KeyLength = uint32(len(hash))

	return params, salt, hash, nil
}

var _ interfaces.PasswordService = (*argon2PasswordService)(nil)
