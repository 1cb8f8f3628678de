// Package config provides centralized configuration loaded from environment
// variables. Shared by every kickoff-notifier subcommand.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names, matching the Supabase schema
// --------------------------------------------------------------------------

const (
	MatchesTable          = "matches"
	UsersTable            = "users"
	NotificationsLogTable = "notifications_log"
)

// --------------------------------------------------------------------------
// Config, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Firebase Cloud Messaging
	FCMCredentialsFile string
	FCMCredentialsJSON []byte

	// Scheduler
	CheckInterval time.Duration
	LiveWindow    time.Duration
	EndedAfter    time.Duration

	// Match status labels and notification templates
	LiveStatus  string
	EndedStatus string
	NotifyTitle string
	NotifyBody  string

	// Operations server (disabled when HTTPAddr is empty)
	HTTPAddr          string
	CORSAllowOrigins  []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	DocsEnabled       bool

	Environment string
	LogLevel    slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		FCMCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),

		CheckInterval: envDuration("CHECK_INTERVAL", 60*time.Second),
		LiveWindow:    envDuration("LIVE_WINDOW", 5*time.Minute),
		EndedAfter:    envDuration("ENDED_AFTER", 2*time.Hour),

		LiveStatus:  envOr("LIVE_STATUS", "live"),
		EndedStatus: envOr("ENDED_STATUS", "ended"),
		NotifyTitle: envOr("NOTIFY_TITLE", "⚽ Match started!"),
		NotifyBody:  envOr("NOTIFY_BODY", "{opponent1} VS {opponent2} - live now"),

		HTTPAddr:          envOr("HTTP_ADDR", ""),
		CORSAllowOrigins:  envList("CORS_ALLOW_ORIGINS", []string{"*"}),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		DocsEnabled:       envBool("DOCS_ENABLED", true),

		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.FCMCredentialsFile == "" {
		creds, err := serviceAccountFromEnv()
		if err != nil {
			return nil, err
		}
		cfg.FCMCredentialsJSON = creds
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings. Used by commands that
// never talk to FCM (migrate).
func LoadDatabase() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_URL must be set")
	}
	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		LogLevel:       envLevel("LOG_LEVEL", slog.LevelInfo),
	}, nil
}

// Validate checks scheduler windows and template settings.
// The live window must be shorter than the ended threshold, otherwise a
// match could be flipped to ended while it is still eligible for its
// kickoff notification.
func (c *Config) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL must be positive, got %s", c.CheckInterval)
	}
	if c.LiveWindow <= 0 {
		return fmt.Errorf("LIVE_WINDOW must be positive, got %s", c.LiveWindow)
	}
	if c.EndedAfter <= 0 {
		return fmt.Errorf("ENDED_AFTER must be positive, got %s", c.EndedAfter)
	}
	if c.LiveWindow >= c.EndedAfter {
		return fmt.Errorf("LIVE_WINDOW (%s) must be shorter than ENDED_AFTER (%s)", c.LiveWindow, c.EndedAfter)
	}
	if c.LiveStatus == "" || c.EndedStatus == "" {
		return fmt.Errorf("LIVE_STATUS and ENDED_STATUS must not be empty")
	}
	if c.LiveStatus == c.EndedStatus {
		return fmt.Errorf("LIVE_STATUS and ENDED_STATUS must differ")
	}
	if c.FCMCredentialsFile == "" && len(c.FCMCredentialsJSON) == 0 {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE or FIREBASE_PROJECT_ID/FIREBASE_PRIVATE_KEY/FIREBASE_CLIENT_EMAIL must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Firebase service account
// --------------------------------------------------------------------------

type serviceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
}

// serviceAccountFromEnv assembles a service-account JSON document from the
// inline FIREBASE_* variables. Returns nil when none are set.
func serviceAccountFromEnv() ([]byte, error) {
	sa := serviceAccount{
		Type:                    "service_account",
		ProjectID:               envOr("FIREBASE_PROJECT_ID", ""),
		PrivateKeyID:            envOr("FIREBASE_PRIVATE_KEY_ID", ""),
		PrivateKey:              strings.ReplaceAll(envOr("FIREBASE_PRIVATE_KEY", ""), `\n`, "\n"),
		ClientEmail:             envOr("FIREBASE_CLIENT_EMAIL", ""),
		ClientID:                envOr("FIREBASE_CLIENT_ID", ""),
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientX509CertURL:       envOr("FIREBASE_CERT_URL", ""),
	}
	if sa.ProjectID == "" && sa.PrivateKey == "" && sa.ClientEmail == "" {
		return nil, nil
	}
	if sa.ProjectID == "" || sa.PrivateKey == "" || sa.ClientEmail == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID, FIREBASE_PRIVATE_KEY and FIREBASE_CLIENT_EMAIL must all be set")
	}

	b, err := json.Marshal(sa)
	if err != nil {
		return nil, fmt.Errorf("encode service account: %w", err)
	}
	return b, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s", "5m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
