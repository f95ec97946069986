package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/service"
)

// MFAHandler serves authenticator enrolment, trusted devices and recovery
// codes. All routes sit behind RequireVerifiedAuth.
type MFAHandler struct {
	mfa            service.MFAService
	trustedDevices service.TrustedDeviceService
	recoveryCodes  service.RecoveryCodeService
	logger         *zap.Logger
}

// NewMFAHandler creates a new MFAHandler.
func NewMFAHandler(
	mfa service.MFAService,
	trustedDevices service.TrustedDeviceService,
	recoveryCodes service.RecoveryCodeService,
	logger *zap.Logger,
) *MFAHandler {
	return &MFAHandler{
		mfa:            mfa,
		trustedDevices: trustedDevices,
		recoveryCodes:  recoveryCodes,
		logger:         logger.Named("mfa_handler"),
	}
}

// RequireVerifiedAuth gates routes on a fully verified login: password
// checked and no outstanding second factor.
func RequireVerifiedAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		auth := sess.Auth()
		if auth == nil || auth.RequiresVerification {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CreateKey provisions a fresh authenticator key for the logged-in user.
func (h *MFAHandler) CreateKey(c *gin.Context) {
	auth := CurrentSession(c).Auth()
	secret, otpauthURL, err := h.mfa.CreateTOTPKey(c.Request.Context(), auth.UserID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret, "otpauthUrl": otpauthURL})
}

type enableRequest struct {
	Code string `json:"code" binding:"required"`
}

// Enable confirms the provisioned key and switches the second factor on.
func (h *MFAHandler) Enable(c *gin.Context) {
	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	auth := CurrentSession(c).Auth()
	if err := h.mfa.Enable(c.Request.Context(), auth.UserID, req.Code); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "two-factor authentication enabled"})
}

// Disable switches the second factor off and discards all related state.
func (h *MFAHandler) Disable(c *gin.Context) {
	auth := CurrentSession(c).Auth()
	if err := h.mfa.Disable(c.Request.Context(), auth.UserID); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "two-factor authentication disabled"})
}

type deviceResponse struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	Browser   string    `json:"browser"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListDevices returns the user's live trust grants.
func (h *MFAHandler) ListDevices(c *gin.Context) {
	auth := CurrentSession(c).Auth()
	infos, err := h.trustedDevices.List(c.Request.Context(), auth.UserID)
	if err != nil {
		h.logger.Error("failed to list trusted devices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]deviceResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, deviceResponse{
			ID:        info.ID.String(),
			Platform:  info.Device.Platform,
			Browser:   info.Device.Browser,
			IP:        info.Device.IP,
			CreatedAt: info.CreatedAt,
			ExpiresAt: info.ExpiresAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"devices": out})
}

type revokeDevicesRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// RevokeDevices removes trust grants by ID.
func (h *MFAHandler) RevokeDevices(c *gin.Context) {
	var req revokeDevicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one device id is required"})
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id: " + raw})
			return
		}
		ids = append(ids, id)
	}

	auth := CurrentSession(c).Auth()
	revoked, err := h.trustedDevices.Revoke(c.Request.Context(), auth.UserID, ids...)
	if err != nil {
		h.logger.Error("failed to revoke trusted devices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// GenerateRecoveryCodes replaces the user's batch and returns the new codes.
func (h *MFAHandler) GenerateRecoveryCodes(c *gin.Context) {
	auth := CurrentSession(c).Auth()
	codes, err := h.recoveryCodes.Generate(c.Request.Context(), auth.UserID)
	if err != nil {
		h.logger.Error("failed to generate recovery codes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

// ListRecoveryCodes re-displays the outstanding batch.
func (h *MFAHandler) ListRecoveryCodes(c *gin.Context) {
	auth := CurrentSession(c).Auth()
	codes, err := h.recoveryCodes.List(c.Request.Context(), auth.UserID)
	if err != nil {
		h.logger.Error("failed to list recovery codes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}
