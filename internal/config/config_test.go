package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 4241 {
		t.Errorf("expected default port 4241, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Badger.Path != "./data/portal" {
		t.Errorf("expected default badger path ./data/portal, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Identity.ClientID != "" {
		t.Errorf("expected empty default client id, got %s", cfg.Identity.ClientID)
	}
	if cfg.Identity.ScriptURL != DefaultScriptURL {
		t.Errorf("expected default script url %s, got %s", DefaultScriptURL, cfg.Identity.ScriptURL)
	}
	if len(cfg.Login.FallbackEmails) != 3 {
		t.Errorf("expected 3 fallback emails, got %d", len(cfg.Login.FallbackEmails))
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.IsDevMode() {
		t.Error("expected default environment to not be dev mode")
	}
}

func TestDurations_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	if got := cfg.Identity.GetReadyTimeout(); got != 2*time.Second {
		t.Errorf("expected ready timeout 2s, got %s", got)
	}
	if got := cfg.Session.GetReadyWait(); got != 500*time.Millisecond {
		t.Errorf("expected ready wait 500ms, got %s", got)
	}
	if got := cfg.Session.GetCacheTTL(); got != 30*time.Minute {
		t.Errorf("expected cache ttl 30m, got %s", got)
	}
}

func TestDurations_InvalidFallsBack(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Identity.ReadyTimeout = "soon"
	cfg.Identity.RetryAfter = "-5s"

	if got := cfg.Identity.GetReadyTimeout(); got != 2*time.Second {
		t.Errorf("expected fallback 2s, got %s", got)
	}
	if got := cfg.Identity.GetRetryAfter(); got != time.Minute {
		t.Errorf("expected fallback 1m, got %s", got)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 4241 {
		t.Errorf("expected default port 4241, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
environment = "dev"

[server]
port = 9090
host = "0.0.0.0"

[storage.badger]
path = "/tmp/test-db"

[identity]
client_id = "abc.apps.googleusercontent.com"
ready_timeout = "3s"

[login]
fallback_emails = ["a@example.com"]

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Badger.Path != "/tmp/test-db" {
		t.Errorf("expected badger path /tmp/test-db, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Identity.ClientID != "abc.apps.googleusercontent.com" {
		t.Errorf("expected client id from file, got %s", cfg.Identity.ClientID)
	}
	if cfg.Identity.GetReadyTimeout() != 3*time.Second {
		t.Errorf("expected ready timeout 3s, got %s", cfg.Identity.GetReadyTimeout())
	}
	// Not set in file, must keep the default
	if cfg.Identity.ScriptURL != DefaultScriptURL {
		t.Errorf("expected default script url, got %s", cfg.Identity.ScriptURL)
	}
	if len(cfg.Login.FallbackEmails) != 1 || cfg.Login.FallbackEmails[0] != "a@example.com" {
		t.Errorf("expected fallback emails [a@example.com], got %v", cfg.Login.FallbackEmails)
	}
	if !cfg.IsDevMode() {
		t.Error("expected dev mode")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Logging.Format)
	}
}

func TestLoadFromFiles_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	baseContent := `
[server]
port = 3000
host = "base-host"
`
	if err := os.WriteFile(base, []byte(baseContent), 0644); err != nil {
		t.Fatal(err)
	}

	override := filepath.Join(dir, "override.toml")
	overrideContent := `
[server]
port = 4000
`
	if err := os.WriteFile(override, []byte(overrideContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000 from override, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "base-host" {
		t.Errorf("expected host base-host from base file, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "invalid.toml")

	if err := os.WriteFile(tomlPath, []byte("this is not valid {{toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(tomlPath)
	if err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("PORTAL_SERVER_PORT", "9999")
	t.Setenv("PORTAL_SERVER_HOST", "env-host")
	t.Setenv("PORTAL_BADGER_PATH", "/env/path")
	t.Setenv("PORTAL_IDENTITY_CLIENT_ID", "env-client")
	t.Setenv("PORTAL_LOGIN_FALLBACK_EMAILS", "x@example.com,y@example.com")
	t.Setenv("PORTAL_LOG_LEVEL", "error")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "env-host" {
		t.Errorf("expected env host env-host, got %s", cfg.Server.Host)
	}
	if cfg.Storage.Badger.Path != "/env/path" {
		t.Errorf("expected env badger path /env/path, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Identity.ClientID != "env-client" {
		t.Errorf("expected env client id, got %s", cfg.Identity.ClientID)
	}
	if len(cfg.Login.FallbackEmails) != 2 || cfg.Login.FallbackEmails[1] != "y@example.com" {
		t.Errorf("expected two fallback emails from env, got %v", cfg.Login.FallbackEmails)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Logging.Level)
	}
	// Untouched by env
	if cfg.Identity.ScriptURL != DefaultScriptURL {
		t.Errorf("expected default script url, got %s", cfg.Identity.ScriptURL)
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("PORTAL_SERVER_PORT", "not-a-number")

	if err := applyEnvOverrides(cfg); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 7777, "flag-host")

	if cfg.Server.Port != 7777 {
		t.Errorf("expected flag port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "flag-host" {
		t.Errorf("expected flag host flag-host, got %s", cfg.Server.Host)
	}
}

func TestApplyFlagOverrides_ZeroPortNoOverride(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 0, "")

	if cfg.Server.Port != 4241 {
		t.Errorf("expected default port 4241, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
}
