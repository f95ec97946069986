package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/service"
)

// AccountHandler serves the emailed account flows. Responses are uniform
// where the flow must not reveal whether an account exists.
type AccountHandler struct {
	flows  service.AccountFlowService
	logger *zap.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(flows service.AccountFlowService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		flows:  flows,
		logger: logger.Named("account_handler"),
	}
}

type identifierRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// RequestPasswordReset emails a reset (or verification) link. The response
// is the same whether or not the identifier matched an account.
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	var req identifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier is required"})
		return
	}
	if err := h.flows.RequestPasswordReset(c.Request.Context(), req.Identifier); err != nil {
		h.logger.Error("failed to process password reset request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "if the account exists, an email has been sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword consumes a reset token and installs the new password.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and a password of at least 8 characters are required"})
		return
	}
	if err := h.flows.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

type verifyAccountRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyAccount consumes a verification token and activates the account.
func (h *AccountHandler) VerifyAccount(c *gin.Context) {
	var req verifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.flows.VerifyAccount(c.Request.Context(), req.Token); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "account verified"})
}

// ResendVerification emails a fresh verification link. Uniform response,
// as with password resets.
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req identifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier is required"})
		return
	}
	if err := h.flows.ResendVerification(c.Request.Context(), req.Identifier); err != nil {
		h.logger.Error("failed to resend verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "if the account exists, an email has been sent"})
}
