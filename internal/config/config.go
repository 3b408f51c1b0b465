package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config stores runtime configuration for the dashboard service.
type Config struct {
	SocketPath       string
	DemoMode         bool
	PollInterval     time.Duration
	HTTPListenAddr   string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	TSTimeout        time.Duration
	UnraidConfigDir  string
	DefaultLanguage  string
	WebRoot          string
	JWTSecret        string
	JWTTTL           time.Duration
	DBPath           string
	MonitorSchedule  string
	LogFormat        string
	LogLevel         slog.Level
}

// Load reads environment variables and validates required settings.
func Load() (Config, error) {
	cfg := Config{
		SocketPath:       stringFromEnv("TAILSCALE_SOCKET", ""),
		DemoMode:         boolFromEnv("TAILSCALE_DASHBOARD_DEMO", false),
		PollInterval:     durationFromEnv("TAILSCALE_DASHBOARD_POLL_INTERVAL", 5*time.Second),
		HTTPListenAddr:   stringFromEnv("TAILSCALE_DASHBOARD_LISTEN_ADDRESS", ":8080"),
		HTTPReadTimeout:  durationFromEnv("TAILSCALE_DASHBOARD_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: durationFromEnv("TAILSCALE_DASHBOARD_WRITE_TIMEOUT", 10*time.Second),
		TSTimeout:        durationFromEnv("TAILSCALE_TIMEOUT", 5*time.Second),
		UnraidConfigDir:  stringFromEnv("UNRAID_CONFIG_DIR", "/boot/config"),
		DefaultLanguage:  stringFromEnv("TAILSCALE_DASHBOARD_LANGUAGE", "en"),
		WebRoot:          stringFromEnv("TAILSCALE_DASHBOARD_WEB_ROOT", "web"),
		JWTSecret:        stringFromEnv("TAILSCALE_DASHBOARD_JWT_SECRET", ""),
		JWTTTL:           durationFromEnv("TAILSCALE_DASHBOARD_JWT_TTL", 24*time.Hour),
		DBPath:           stringFromEnv("TAILSCALE_DASHBOARD_DB_PATH", ""),
		MonitorSchedule:  stringFromEnv("TAILSCALE_DASHBOARD_MONITOR_SCHEDULE", "@every 1h"),
		LogFormat:        strings.ToLower(stringFromEnv("TAILSCALE_DASHBOARD_LOG_FORMAT", "text")),
		LogLevel:         levelFromEnv("TAILSCALE_DASHBOARD_LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("TAILSCALE_DASHBOARD_POLL_INTERVAL must be > 0")
	}
	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("TAILSCALE_DASHBOARD_JWT_TTL must be > 0")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("TAILSCALE_DASHBOARD_LOG_FORMAT must be text or json")
	}
	if cfg.DBPath != "" {
		if _, err := cron.ParseStandard(cfg.MonitorSchedule); err != nil {
			return Config{}, fmt.Errorf("TAILSCALE_DASHBOARD_MONITOR_SCHEDULE is invalid: %w", err)
		}
	}

	secret, err := loadJWTSecret(cfg.JWTSecret)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTSecret = secret

	return cfg, nil
}

// AuthEnabled reports whether /api/v1 requires a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// HistoryEnabled reports whether warnings are recorded to SQLite.
func (c Config) HistoryEnabled() bool {
	return c.DBPath != ""
}

func loadJWTSecret(secret string) (string, error) {
	if secret != "" {
		return secret, nil
	}

	secretPath := strings.TrimSpace(os.Getenv("TAILSCALE_DASHBOARD_JWT_SECRET_FILE"))
	if secretPath == "" {
		return "", nil
	}

	secretData, err := os.ReadFile(secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read TAILSCALE_DASHBOARD_JWT_SECRET_FILE: %w", err)
	}

	secret = strings.TrimSpace(string(secretData))
	if secret == "" {
		return "", fmt.Errorf("TAILSCALE_DASHBOARD_JWT_SECRET_FILE is empty")
	}

	return secret, nil
}

func durationFromEnv(name string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err == nil {
		return parsed
	}

	// Accept plain integers as seconds for convenience (e.g. "2" => 2s).
	if seconds, parseErr := strconv.Atoi(value); parseErr == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}

	return fallback
}

func boolFromEnv(name string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func stringFromEnv(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	return value
}

func levelFromEnv(name string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}

	return level
}
