package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus is the outcome recorded with an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// AuditEntry is one append-only record of an auth-relevant event. UserID is
// nil when the actor could not be identified (e.g. a failed login for an
// unknown username; the attempted identifier goes in Details instead).
type AuditEntry struct {
	ID        int64
	UserID    *uuid.UUID
	Action    string
	Status    AuditStatus
	IPAddress string
	UserAgent string
	Details   map[string]any
	CreatedAt time.Time
}
