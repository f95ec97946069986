package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/config"
	"github.com/nlct/pass-auth/internal/domain/repository/postgres"
	"github.com/nlct/pass-auth/internal/domain/service"
	httphandler "github.com/nlct/pass-auth/internal/handler/http"
	infraPostgres "github.com/nlct/pass-auth/internal/infrastructure/database/postgres"
	"github.com/nlct/pass-auth/internal/infrastructure/notification"
	"github.com/nlct/pass-auth/internal/infrastructure/security"
	"github.com/nlct/pass-auth/internal/infrastructure/web"
)

// App wires the auth service together and owns its lifecycle.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	pool       *pgxpool.Pool
	httpServer *http.Server
	sessions   service.SessionStore
}

// New builds the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations")
		if err := infraPostgres.RunMigrations(cfg.Database, "file://migrations"); err != nil {
			return nil, err
		}
	}

	pool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// Repositories.
	userRepo := postgres.NewUserRepositoryPostgres(pool)
	accountTokenRepo := postgres.NewAccountTokenRepositoryPostgres(pool)
	trustedDeviceRepo := postgres.NewTrustedDeviceRepositoryPostgres(pool)
	recoveryCodeRepo := postgres.NewRecoveryCodeRepositoryPostgres(pool)
	sessionRepo := postgres.NewSessionRepositoryPostgres(pool)
	auditRepo := postgres.NewAuditLogRepositoryPostgres(pool)

	// Infrastructure.
	passwords := security.NewArgon2PasswordService(security.Argon2Params{
		Memory:      cfg.Security.PasswordHash.Memory,
		Iterations:  cfg.Security.PasswordHash.Iterations,
		Parallelism: cfg.Security.PasswordHash.Parallelism,
		SaltLength:  cfg.Security.PasswordHash.SaltLength,
		KeyLength:   cfg.Security.PasswordHash.KeyLength,
	})
	totp := security.NewTOTPService(cfg.MFA.TOTPIssuerName)
	encryption := security.NewAESGCMEncryptionService()
	notifier := notification.NewSMTPNotifier(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		SiteName: cfg.Website.Name,
	}, logger)

	// Domain services.
	tokens := service.NewTokenService()
	audit := service.NewAuditRecorder(auditRepo, logger)
	accountTokens := service.NewAccountTokenService(accountTokenRepo, userRepo, tokens, logger)
	trustedDevices := service.NewTrustedDeviceService(trustedDeviceRepo, tokens, encryption, cfg.MFA.DeviceEncryptionKey, logger)
	recoveryCodes := service.NewRecoveryCodeService(recoveryCodeRepo, tokens, encryption, cfg.MFA.RecoveryCodeEncryptionKey, logger)
	sessionStore := service.NewSessionStore(sessionRepo, logger)

	credentials, err := service.NewCredentialService(service.CredentialServiceDeps{
		UserRepo:       userRepo,
		Passwords:      passwords,
		TOTP:           totp,
		Encryption:     encryption,
		Notifier:       notifier,
		TrustedDevices: trustedDevices,
		RecoveryCodes:  recoveryCodes,
		Audit:          audit,
		TOTPKeyHex:     cfg.MFA.TOTPEncryptionKey,
		TrustTTL:       cfg.MFA.TrustDeviceTTL,
		Logger:         logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	mfa := service.NewMFAService(service.MFAServiceDeps{
		UserRepo:       userRepo,
		TOTP:           totp,
		Encryption:     encryption,
		Notifier:       notifier,
		TrustedDevices: trustedDevices,
		RecoveryCodes:  recoveryCodes,
		Audit:          audit,
		TOTPKeyHex:     cfg.MFA.TOTPEncryptionKey,
		IssuerName:     cfg.MFA.TOTPIssuerName,
		Logger:         logger,
	})

	flows := service.NewAccountFlowService(userRepo, accountTokens, passwords, notifier, audit, service.AccountFlowConfig{
		ResetLinkTimeout:  cfg.Tokens.ResetLinkTimeout,
		VerifyLinkTimeout: cfg.Tokens.VerifyLinkTimeout,
		ResetURL:          cfg.Website.ResetURL(),
		VerifyURL:         cfg.Website.VerifyURL(),
	}, logger)

	// HTTP layer.
	trustCookie := web.CookieSettings{
		Name:   cfg.MFA.TrustCookieName,
		Domain: cfg.Website.Domain,
		Secure: cfg.Website.Secure,
	}
	sessionManager := httphandler.NewSessionManager(sessionStore, tokens, httphandler.SessionCookieSettings{
		Name:   "pass_sid",
		Domain: cfg.Website.Domain,
		Secure: cfg.Website.Secure,
	}, cfg.Session.MaxLifetime, logger)

	router := httphandler.SetupRouter(httphandler.RouterDeps{
		Sessions: sessionManager,
		Auth:     httphandler.NewAuthHandler(credentials, trustCookie, logger),
		Account:  httphandler.NewAccountHandler(flows, logger),
		MFA:      httphandler.NewMFAHandler(mfa, trustedDevices, recoveryCodes, logger),
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		httpServer: httpServer,
		sessions:   sessionStore,
	}, nil
}

// Run starts the HTTP server and the session GC loop, then blocks until a
// shutdown signal arrives.
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()
	go a.runSessionGC(gcCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("server error, shutting down", zap.Error(err))
	case sig := <-quit:
		a.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server forced to shut down", zap.Error(err))
	}
	a.pool.Close()
	a.logger.Info("server exited")
	return nil
}

// runSessionGC reaps idle sessions on the configured interval. Each pass is
// bounded so a slow database cannot wedge the loop.
func (a *App) runSessionGC(ctx context.Context) {
	interval := a.cfg.Session.GCInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gcCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if _, err := a.sessions.GC(gcCtx, a.cfg.Session.MaxLifetime); err != nil {
				a.logger.Error("session GC failed", zap.Error(err))
			}
			cancel()
		}
	}
}
