package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/repository"
)

type requestMetaKey struct{}

// RequestMeta carries the request attribution recorded alongside audit
// entries. Handlers attach it once per request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta returns a context carrying the request attribution.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// MetaFromContext extracts request attribution, substituting "unknown" for
// anything missing so audit rows never hold empty attribution fields.
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	if !ok {
		return RequestMeta{IPAddress: "unknown", UserAgent: "unknown"}
	}
	if meta.IPAddress == "" {
		meta.IPAddress = "unknown"
	}
	if meta.UserAgent == "" {
		meta.UserAgent = "unknown"
	}
	return meta
}

// AuditRecorder appends entries to the audit trail. Recording never fails
// the calling operation; a write error is logged and swallowed.
type AuditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, action string, status models.AuditStatus, details map[string]any)
}

type auditRecorderImpl struct {
	auditRepo repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditRecorder creates a new auditRecorderImpl.
func NewAuditRecorder(auditRepo repository.AuditLogRepository, logger *zap.Logger) AuditRecorder {
	return &auditRecorderImpl{
		auditRepo: auditRepo,
		logger:    logger.Named("audit_recorder"),
	}
}

func (s *auditRecorderImpl) Record(ctx context.Context, userID *uuid.UUID, action string, status models.AuditStatus, details map[string]any) {
	meta := MetaFromContext(ctx)
	entry := &models.AuditEntry{
		UserID:    userID,
		Action:    action,
		Status:    status,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   details,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.Error(err),
			zap.String("action", action),
			zap.String("status", string(status)),
		)
		return
	}
	s.logger.Debug("audit event recorded",
		zap.String("action", action),
		zap.String("status", string(status)),
	)
}

var _ AuditRecorder = (*auditRecorderImpl)(nil)
