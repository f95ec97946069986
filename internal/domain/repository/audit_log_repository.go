package repository

import (
	"context"

	"github.com/nlct/pass-auth/internal/domain/models"
)

// AuditLogRepository defines the interface for the append-only audit trail.
type AuditLogRepository interface {
	// Create appends one audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error
}
