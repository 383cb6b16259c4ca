// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	Accounts AccountsConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
	// TrustedProxies lists the CIDRs whose X-Forwarded-For is honoured.
	// Empty means the client IP is the peer address.
	TrustedProxies []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres
	DSN    string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string // empty disables delivery, mails are logged instead
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type RedisConfig struct {
	URL             string // empty disables the login rate limiter
	LoginRatePerMin int
}

type AccountsConfig struct { //nolint:govet // fieldalignment not critical
	NewUserStatus        int
	NewUserVerified      bool
	DefaultQuotaMB       int
	QuotaBonusMB         int
	PasswordScheme       string // legacy, bcrypt
	BcryptCost           int
	LoginAttemptLimit    int // 0 disables the lockout
	LockoutWindowMinutes int
	AttemptRetentionDays int
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),

			TrustedProxies: cmd.StringSlice("trusted-proxy"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(cmd.String("database-driver")),
			DSN:    cmd.String("database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Redis: RedisConfig{
			URL:             cmd.String("redis-url"),
			LoginRatePerMin: int(cmd.Int("login-rate-per-minute")),
		},
		Accounts: AccountsConfig{
			NewUserStatus:        int(cmd.Int("new-user-status")),
			NewUserVerified:      cmd.Bool("new-user-verified"),
			DefaultQuotaMB:       int(cmd.Int("default-quota-mb")),
			QuotaBonusMB:         int(cmd.Int("quota-bonus-mb")),
			PasswordScheme:       cmd.String("password-scheme"),
			BcryptCost:           int(cmd.Int("bcrypt-cost")),
			LoginAttemptLimit:    int(cmd.Int("login-attempt-limit")),
			LockoutWindowMinutes: int(cmd.Int("login-lockout-window")),
			AttemptRetentionDays: int(cmd.Int("attempt-retention-days")),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsSecure reports whether the public URL is served over HTTPS, which
// decides the Secure flag of cookies.
func (c *ServerConfig) IsSecure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	if cfg.Server.Port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL of the application",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "trusted-proxy",
			Usage:   "CIDR of a reverse proxy whose X-Forwarded-For is trusted (repeatable)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TRUSTED_PROXIES"), toml.TOML("server.trusted_proxies", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		// Database flags
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   "sqlite",
			Usage:   "Database driver (sqlite, postgres)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DRIVER"), toml.TOML("database.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN (file path for sqlite, URL for postgres)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   604800, // 7 days in seconds
			Usage:   "Session max age in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_MAX_AGE"), toml.TOML("session.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("session.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("session.block_key", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (empty logs mails instead of sending)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Value:   "noreply@bitsybay.localhost",
			Usage:   "Sender address",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "BitsyBay",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP (implicit TLS on port 465, STARTTLS otherwise)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		// Redis flags
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the login rate limiter (empty disables it)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_URL"), toml.TOML("redis.url", configFile)),
		},
		&cli.IntFlag{
			Name:    "login-rate-per-minute",
			Value:   20,
			Usage:   "Login requests allowed per client IP and minute",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOGIN_RATE_PER_MINUTE"), toml.TOML("redis.login_rate_per_minute", configFile)),
		},
		// Account flags
		&cli.IntFlag{
			Name:    "new-user-status",
			Value:   1,
			Usage:   "Status of newly registered accounts (1 active, 0 inactive)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("NEW_USER_STATUS"), toml.TOML("accounts.new_user_status", configFile)),
		},
		&cli.BoolFlag{
			Name:    "new-user-verified",
			Usage:   "Mark newly registered accounts as verified",
			Sources: cli.NewValueSourceChain(cli.EnvVar("NEW_USER_VERIFIED"), toml.TOML("accounts.new_user_verified", configFile)),
		},
		&cli.IntFlag{
			Name:    "default-quota-mb",
			Value:   100,
			Usage:   "File quota of new accounts in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DEFAULT_QUOTA_MB"), toml.TOML("accounts.default_quota_mb", configFile)),
		},
		&cli.IntFlag{
			Name:    "quota-bonus-mb",
			Value:   1,
			Usage:   "Quota bonus per order in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_BONUS_MB"), toml.TOML("accounts.quota_bonus_mb", configFile)),
		},
		&cli.StringFlag{
			Name:    "password-scheme",
			Value:   "legacy",
			Usage:   "Hashing scheme for new credentials (legacy, bcrypt)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PASSWORD_SCHEME"), toml.TOML("accounts.password_scheme", configFile)),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   10,
			Usage:   "bcrypt cost factor",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BCRYPT_COST"), toml.TOML("accounts.bcrypt_cost", configFile)),
		},
		&cli.IntFlag{
			Name:    "login-attempt-limit",
			Value:   10,
			Usage:   "Failed logins that lock a login identifier (0 disables)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOGIN_ATTEMPT_LIMIT"), toml.TOML("accounts.login_attempt_limit", configFile)),
		},
		&cli.IntFlag{
			Name:    "login-lockout-window",
			Value:   15,
			Usage:   "Minutes during which failed logins count towards the limit",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOGIN_LOCKOUT_WINDOW"), toml.TOML("accounts.login_lockout_window", configFile)),
		},
		&cli.IntFlag{
			Name:    "attempt-retention-days",
			Value:   365,
			Usage:   "Age in days after which login attempts are pruned",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ATTEMPT_RETENTION_DAYS"), toml.TOML("accounts.attempt_retention_days", configFile)),
		},
	}
}
