package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/service"
	"github.com/nlct/pass-auth/internal/infrastructure/web"
	"github.com/nlct/pass-auth/internal/utils/device"
)

// Recovery codes are typed as "xxxxxx-xxxxxx": hex selector, dash, hex verifier.
var recoveryCodeInputPattern = regexp.MustCompile(`^([0-9a-f]{6})-([0-9a-f]{6})$`)

// AuthHandler serves login, second factor and logout.
type AuthHandler struct {
	credentials service.CredentialService
	cookie      web.CookieSettings
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. cookie describes the trust
// cookie handed to remembered devices.
func NewAuthHandler(credentials service.CredentialService, cookie web.CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		cookie:      cookie,
		logger:      logger.Named("auth_handler"),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Username             string `json:"username"`
	Role                 string `json:"role"`
	RequiresVerification bool   `json:"requiresVerification"`
}

func toAuthResponse(auth *models.AuthContext) authResponse {
	return authResponse{
		Username:             auth.Username,
		Role:                 string(auth.Role),
		RequiresVerification: auth.RequiresVerification,
	}
}

// Login verifies a username/password pair and stores the result in the
// session. The trust cookie, when present, may satisfy the second factor.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	sess := CurrentSession(c)
	jar := web.NewTrustCookieJar(c.Request, c.Writer, h.cookie)

	auth, err := h.credentials.VerifyCredentials(c.Request.Context(), req.Username, req.Password, service.VerifyOptions{
		RequireSecondFactor: true,
		TrustCookie:         jar,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sess.SetAuth(auth)
	c.JSON(http.StatusOK, toAuthResponse(auth))
}

type totpRequest struct {
	Code        string `json:"code" binding:"required"`
	TrustDevice bool   `json:"trustDevice"`
}

// VerifyTOTP completes login with an authenticator code.
func (h *AuthHandler) VerifyTOTP(c *gin.Context) {
	var req totpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	sess := CurrentSession(c)
	jar := web.NewTrustCookieJar(c.Request, c.Writer, h.cookie)
	fp := device.FingerprintFromRequest(c.Request)

	auth, err := h.credentials.VerifyTOTP(c.Request.Context(), sess.Auth(), req.Code, req.TrustDevice, fp, jar, sess)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sess.SetAuth(auth)
	c.JSON(http.StatusOK, toAuthResponse(auth))
}

type recoveryRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyRecoveryCode completes login by burning a fallback code.
func (h *AuthHandler) VerifyRecoveryCode(c *gin.Context) {
	var req recoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	m := recoveryCodeInputPattern.FindStringSubmatch(req.Code)
	if m == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domainErrors.ErrInvalidCode.Error()})
		return
	}

	sess := CurrentSession(c)
	auth, err := h.credentials.VerifyRecoveryCode(c.Request.Context(), sess.Auth(), m[1], m[2], sess)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	sess.SetAuth(auth)
	c.JSON(http.StatusOK, toAuthResponse(auth))
}

// Logout destroys the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := CurrentSession(c)
	if err := sess.Terminate(c.Request.Context()); err != nil {
		h.logger.Error("failed to terminate session on logout", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// respondAuthError maps domain errors onto HTTP responses without leaking
// internals.
func respondAuthError(c *gin.Context, err error) {
	switch {
	case domainErrors.IsAuthenticationFailure(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case domainErrors.IsAccountStateError(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrTokenInvalidOrExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrNoMFAKey):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
