package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

// AuditLogRepositoryPostgres implements repository.AuditLogRepository for
// PostgreSQL.
type AuditLogRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepositoryPostgres creates a new instance.
func NewAuditLogRepositoryPostgres(pool *pgxpool.Pool) *AuditLogRepositoryPostgres {
	return &AuditLogRepositoryPostgres{pool: pool}
}

// Create appends one audit entry. Details marshal to JSONB; a nil map is
// stored as SQL NULL.
func (r *AuditLogRepositoryPostgres) Create(ctx context.Context, entry *models.AuditEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}
	query := `
		INSERT INTO audit_log (user_id, action, status, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		entry.UserID, entry.Action, entry.Status, entry.IPAddress, entry.UserAgent, details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

var _ repository.AuditLogRepository = (*AuditLogRepositoryPostgres)(nil)
