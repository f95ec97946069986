package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from config.<env>.yaml and the AUTH_*
// environment variables, with the environment taking precedence. A missing
// config file is fine; the environment alone can configure everything.
func LoadConfig() (*Config, error) {
	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/pass-auth")
	}

	viper.SetEnvPrefix("AUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.auto_migrate", false)

	viper.SetDefault("security.password_hash.memory", 65536)
	viper.SetDefault("security.password_hash.iterations", 3)
	viper.SetDefault("security.password_hash.parallelism", 4)
	viper.SetDefault("security.password_hash.salt_length", 16)
	viper.SetDefault("security.password_hash.key_length", 32)

	viper.SetDefault("mfa.totp_issuer_name", "Assignment Portal")
	viper.SetDefault("mfa.trust_cookie_name", "pass_trust")
	viper.SetDefault("mfa.trust_device_ttl", "720h") // 30 days

	viper.SetDefault("tokens.reset_link_timeout", "1h")
	viper.SetDefault("tokens.verify_link_timeout", "24h")

	viper.SetDefault("session.max_lifetime", "24h")
	viper.SetDefault("session.gc_interval", "1h")

	viper.SetDefault("website.name", "Assignment Portal")
	viper.SetDefault("website.reset_path", "/account/reset")
	viper.SetDefault("website.verify_path", "/account/verify")
	viper.SetDefault("website.secure", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.environment", "development")
}

// validate rejects configurations that would only fail later at first use.
func validate(cfg *Config) error {
	for name, key := range map[string]string{
		"mfa.totp_encryption_key":          cfg.MFA.TOTPEncryptionKey,
		"mfa.device_encryption_key":        cfg.MFA.DeviceEncryptionKey,
		"mfa.recovery_code_encryption_key": cfg.MFA.RecoveryCodeEncryptionKey,
	} {
		if len(key) != 64 {
			return fmt.Errorf("%s must be 64 hex characters (32 bytes)", name)
		}
	}
	if cfg.Website.BaseURL == "" {
		return fmt.Errorf("website.base_url must be set")
	}
	return nil
}
