package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string         `toml:"environment" env:"PORTAL_ENV"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Session     SessionConfig  `toml:"session"`
	Identity    IdentityConfig `toml:"identity"`
	Login       LoginConfig    `toml:"login"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port" env:"PORTAL_SERVER_PORT"`
	Host string `toml:"host" env:"PORTAL_SERVER_HOST"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path" env:"PORTAL_BADGER_PATH"`
}

// SessionConfig controls how per-browser session contexts are held in memory.
type SessionConfig struct {
	DeviceCookie    string `toml:"device_cookie" env:"PORTAL_SESSION_DEVICE_COOKIE"`
	ReadyWait       string `toml:"ready_wait" env:"PORTAL_SESSION_READY_WAIT"`
	HydrateTimeout  string `toml:"hydrate_timeout" env:"PORTAL_SESSION_HYDRATE_TIMEOUT"`
	CacheTTL        string `toml:"cache_ttl" env:"PORTAL_SESSION_CACHE_TTL"`
	CacheMaxEntries int    `toml:"cache_max_entries" env:"PORTAL_SESSION_CACHE_MAX_ENTRIES"`
}

// GetReadyWait returns how long the route guard waits for hydration before
// rendering the loading page.
func (c *SessionConfig) GetReadyWait() time.Duration {
	return parseDuration(c.ReadyWait, 500*time.Millisecond)
}

// GetHydrateTimeout returns the upper bound for reading a session from storage.
func (c *SessionConfig) GetHydrateTimeout() time.Duration {
	return parseDuration(c.HydrateTimeout, 5*time.Second)
}

// GetCacheTTL returns the idle lifetime of an in-memory session context.
func (c *SessionConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 30*time.Minute)
}

// IdentityConfig configures the external sign-in SDK. An empty ClientID or
// ScriptURL is valid and makes the login page fall back to the account picker.
type IdentityConfig struct {
	ClientID     string `toml:"client_id" env:"PORTAL_IDENTITY_CLIENT_ID"`
	ScriptURL    string `toml:"script_url" env:"PORTAL_IDENTITY_SCRIPT_URL"`
	LoginURI     string `toml:"login_uri" env:"PORTAL_IDENTITY_LOGIN_URI"`
	UXMode       string `toml:"ux_mode" env:"PORTAL_IDENTITY_UX_MODE"`
	ReadyTimeout string `toml:"ready_timeout" env:"PORTAL_IDENTITY_READY_TIMEOUT"`
	RetryAfter   string `toml:"retry_after" env:"PORTAL_IDENTITY_RETRY_AFTER"`
}

// GetReadyTimeout returns the login page readiness timer.
func (c *IdentityConfig) GetReadyTimeout() time.Duration {
	return parseDuration(c.ReadyTimeout, 2*time.Second)
}

// GetRetryAfter returns how long a failed script check is remembered.
func (c *IdentityConfig) GetRetryAfter() time.Duration {
	return parseDuration(c.RetryAfter, time.Minute)
}

// LoginConfig contains the fallback account picker candidates.
type LoginConfig struct {
	FallbackEmails []string `toml:"fallback_emails" env:"PORTAL_LOGIN_FALLBACK_EMAILS" envSeparator:","`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level" env:"PORTAL_LOG_LEVEL"`
	Format     string   `toml:"format" env:"PORTAL_LOG_FORMAT"`
	Outputs    []string `toml:"outputs" env:"PORTAL_LOG_OUTPUTS" envSeparator:","`
	FilePath   string   `toml:"file_path" env:"PORTAL_LOG_FILE_PATH"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// IsDevMode reports whether the portal runs with the dev environment.
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// BaseURL returns the externally reachable base URL of the portal.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies PORTAL_* environment variable overrides to config.
// Unset variables leave the current value untouched.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
