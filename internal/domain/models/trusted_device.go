package models

import (
	"time"

	"github.com/google/uuid"
)

// TrustedDevice is a long-lived "skip the second factor" token bound to a
// browser. The cookie holds selector+verifier; only the bound hash of the
// verifier is stored. The device fingerprint is reversibly encrypted so it
// can be shown on the manage-devices page.
type TrustedDevice struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Selector        string // 32 hex chars
	HashedVerifier  string
	EncryptedDevice string
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

// DeviceFingerprint describes the browser that passed the second factor.
// It is JSON-encoded and encrypted before storage.
type DeviceFingerprint struct {
	Platform string `json:"platform"`
	Browser  string `json:"browser"`
	IP       string `json:"ip"`
}

// TrustedDeviceInfo is the decrypted display form used by the
// manage-devices page. No verifier material is exposed.
type TrustedDeviceInfo struct {
	ID        uuid.UUID
	Device    DeviceFingerprint
	ExpiresAt time.Time
	CreatedAt time.Time
}
