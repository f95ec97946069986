package models

import (
	"time"

	"github.com/google/uuid"
)

// RecoveryCode is a one-time second-factor fallback code. Codes are issued
// in batches of ten and have no expiry; each is deleted when consumed.
// Unlike the other token kinds the verifier is reversibly encrypted rather
// than hashed, because the portal lets the user re-display their unused
// codes after generation.
type RecoveryCode struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Selector          string // 6 hex chars
	EncryptedVerifier string // reversibly encrypted 6 hex chars
	CreatedAt         time.Time
}
