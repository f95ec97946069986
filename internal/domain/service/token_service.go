package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TokenService produces and checks the selector/verifier pairs used by
// account links, trust cookies and recovery codes. Selectors are stored
// plainly for lookup; verifiers only ever touch the database as a binding
// hash that also covers the owner and the expiry.
type TokenService interface {
	// GenerateToken returns byteLength random bytes hex-encoded, so the
	// result is twice byteLength characters long.
	GenerateToken(byteLength int) (string, error)

	// HashedVerifier computes the storable digest of a verifier. Binding
	// the user ID and expiry into the digest means a captured row cannot
	// be replayed for another user or revalidated past its lifetime.
	HashedVerifier(verifierHex string, userID uuid.UUID, expiresAt time.Time) string

	// ConstantTimeEqual compares two strings without leaking the position
	// of the first mismatch.
	ConstantTimeEqual(a, b string) bool
}

type tokenServiceImpl struct{}

// NewTokenService creates a new tokenServiceImpl.
func NewTokenService() TokenService {
	return &tokenServiceImpl{}
}

func (s *tokenServiceImpl) GenerateToken(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *tokenServiceImpl) HashedVerifier(verifierHex string, userID uuid.UUID, expiresAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(verifierHex))
	h.Write([]byte(userID.String()))
	h.Write([]byte(strconv.FormatInt(expiresAt.UTC().Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *tokenServiceImpl) ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

var _ TokenService = (*tokenServiceImpl)(nil)
