package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/models"
)

func TestMetaFromContext(t *testing.T) {
	meta := MetaFromContext(context.Background())
	assert.Equal(t, "unknown", meta.IPAddress)
	assert.Equal(t, "unknown", meta.UserAgent)

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "Firefox"})
	meta = MetaFromContext(ctx)
	assert.Equal(t, "10.0.0.7", meta.IPAddress)
	assert.Equal(t, "Firefox", meta.UserAgent)

	ctx = WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7"})
	meta = MetaFromContext(ctx)
	assert.Equal(t, "unknown", meta.UserAgent, "missing fields fall back individually")
}

func TestAuditRecorder_Record(t *testing.T) {
	auditRepo := new(MockAuditLogRepository)
	recorder := NewAuditRecorder(auditRepo, zap.NewNop())
	userID := uuid.New()

	var entry *models.AuditEntry
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditEntry")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*models.AuditEntry)
		}).Return(nil)

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "Firefox"})
	recorder.Record(ctx, &userID, "login", models.AuditStatusSuccess, map[string]any{"k": "v"})

	require.NotNil(t, entry)
	assert.Equal(t, &userID, entry.UserID)
	assert.Equal(t, "login", entry.Action)
	assert.Equal(t, models.AuditStatusSuccess, entry.Status)
	assert.Equal(t, "10.0.0.7", entry.IPAddress)
	assert.Equal(t, "Firefox", entry.UserAgent)
}

func TestAuditRecorder_Record_WriteFailureSwallowed(t *testing.T) {
	auditRepo := new(MockAuditLogRepository)
	recorder := NewAuditRecorder(auditRepo, zap.NewNop())

	auditRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	// Must not panic or propagate; auditing never fails the caller.
	recorder.Record(context.Background(), nil, "login", models.AuditStatusFailure, nil)
	auditRepo.AssertExpectations(t)
}
