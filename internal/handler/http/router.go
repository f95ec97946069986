package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/handler/http/middleware"
)

// RouterDeps holds everything SetupRouter wires together.
type RouterDeps struct {
	Sessions *SessionManager
	Auth     *AuthHandler
	Account  *AccountHandler
	MFA      *MFAHandler
	Logger   *zap.Logger
}

// SetupRouter builds the HTTP routing table.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.RequestMeta())
	api.Use(deps.Sessions.Middleware())

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/totp", deps.Auth.VerifyTOTP)
		auth.POST("/recovery", deps.Auth.VerifyRecoveryCode)
		auth.POST("/logout", deps.Auth.Logout)
	}

	account := api.Group("/account")
	{
		account.POST("/password-reset", deps.Account.RequestPasswordReset)
		account.POST("/password", deps.Account.ResetPassword)
		account.POST("/verify", deps.Account.VerifyAccount)
		account.POST("/resend-verification", deps.Account.ResendVerification)
	}

	secured := api.Group("/")
	secured.Use(RequireVerifiedAuth())
	{
		secured.POST("/mfa/key", deps.MFA.CreateKey)
		secured.POST("/mfa/enable", deps.MFA.Enable)
		secured.POST("/mfa/disable", deps.MFA.Disable)
		secured.GET("/devices", deps.MFA.ListDevices)
		secured.DELETE("/devices", deps.MFA.RevokeDevices)
		secured.POST("/recovery-codes", deps.MFA.GenerateRecoveryCodes)
		secured.GET("/recovery-codes", deps.MFA.ListRecoveryCodes)
	}

	return router
}
