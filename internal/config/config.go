package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration, loaded by LoadConfig.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	MFA      MFAConfig      `mapstructure:"mfa"`
	Tokens   TokensConfig   `mapstructure:"tokens"`
	Session  SessionConfig  `mapstructure:"session"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Website  WebsiteConfig  `mapstructure:"website"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type PasswordHashConfig struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type SecurityConfig struct {
	PasswordHash PasswordHashConfig `mapstructure:"password_hash"`
}

// MFAConfig carries the second-factor settings. The three encryption keys
// are hex-encoded 32-byte AES keys; keeping them separate limits the blast
// radius of a leaked key.
type MFAConfig struct {
	TOTPIssuerName            string        `mapstructure:"totp_issuer_name"`
	TOTPEncryptionKey         string        `mapstructure:"totp_encryption_key"`
	DeviceEncryptionKey       string        `mapstructure:"device_encryption_key"`
	RecoveryCodeEncryptionKey string        `mapstructure:"recovery_code_encryption_key"`
	TrustCookieName           string        `mapstructure:"trust_cookie_name"`
	TrustDeviceTTL            time.Duration `mapstructure:"trust_device_ttl"`
}

type TokensConfig struct {
	ResetLinkTimeout  time.Duration `mapstructure:"reset_link_timeout"`
	VerifyLinkTimeout time.Duration `mapstructure:"verify_link_timeout"`
}

type SessionConfig struct {
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
	GCInterval  time.Duration `mapstructure:"gc_interval"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// WebsiteConfig describes the portal the auth layer serves. BaseURL is the
// externally visible origin used in emailed links; Secure reports whether
// cookies may carry the Secure attribute.
type WebsiteConfig struct {
	Name       string `mapstructure:"name"`
	Domain     string `mapstructure:"domain"`
	BaseURL    string `mapstructure:"base_url"`
	ResetPath  string `mapstructure:"reset_path"`
	VerifyPath string `mapstructure:"verify_path"`
	Secure     bool   `mapstructure:"secure"`
}

// ResetURL is the landing page for password reset links.
func (w WebsiteConfig) ResetURL() string { return w.BaseURL + w.ResetPath }

// VerifyURL is the landing page for account verification links.
func (w WebsiteConfig) VerifyURL() string { return w.BaseURL + w.VerifyPath }

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}
