package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one row of the datastore-backed HTTP session table.
// A row may exist with empty data and no user id: the store lazily creates
// a bare row on the first read of an unknown session id, before any write
// has happened and before anyone has logged in on that session.
type SessionRecord struct {
	SessionID   string
	Data        []byte
	UserID      *uuid.UUID
	LastTouched time.Time
}
