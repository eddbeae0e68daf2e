package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Listen != ":8080" {
		t.Errorf("expected default listen :8080, got %q", cfg.HTTP.Listen)
	}
	if cfg.TTL() != 10*time.Minute {
		t.Errorf("expected default ttl 10m, got %v", cfg.TTL())
	}
	if cfg.ResumeGrace() != 10*time.Minute {
		t.Errorf("expected default grace 10m, got %v", cfg.ResumeGrace())
	}
	if cfg.CleanupInterval() != time.Minute {
		t.Errorf("expected default cleanup 60s, got %v", cfg.CleanupInterval())
	}
	if cfg.CacheExpiry() != time.Hour {
		t.Errorf("expected default cache expiry 1h, got %v", cfg.CacheExpiry())
	}
	if cfg.JWTExpiry() != 24*time.Hour {
		t.Errorf("expected default jwt expiry 24h, got %v", cfg.JWTExpiry())
	}

	// Defaults land on disk so the operator has a file to edit.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config written to disk: %v", err)
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"http":{"listen":":9090"},"session":{"ttl_minutes":5,"resume_grace_minutes":10,"cleanup_interval_seconds":60,"cache_expiry_seconds":3600}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Listen != ":9090" {
		t.Errorf("expected listen from file, got %q", cfg.HTTP.Listen)
	}
	if cfg.TTL() != 5*time.Minute {
		t.Errorf("expected ttl from file, got %v", cfg.TTL())
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	t.Setenv("VANI_LISTEN", ":7070")
	t.Setenv("REDIS_ADDR", "localhost:6390")
	t.Setenv("DATABASE_URL", "postgres://localhost/vani")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("SESSION_EXPIRY", "1800")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Listen != ":7070" {
		t.Errorf("VANI_LISTEN not applied: %q", cfg.HTTP.Listen)
	}
	if cfg.Redis.Addr != "localhost:6390" {
		t.Errorf("REDIS_ADDR not applied: %q", cfg.Redis.Addr)
	}
	if cfg.Database.URL != "postgres://localhost/vani" {
		t.Errorf("DATABASE_URL not applied: %q", cfg.Database.URL)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("JWT_SECRET not applied")
	}
	if cfg.TTL() != 15*time.Minute {
		t.Errorf("SESSION_TTL_MINUTES not applied: %v", cfg.TTL())
	}
	if cfg.CacheExpiry() != 30*time.Minute {
		t.Errorf("SESSION_EXPIRY not applied: %v", cfg.CacheExpiry())
	}
}

func TestEnvOverrideIgnoresBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	t.Setenv("SESSION_TTL_MINUTES", "not-a-number")
	t.Setenv("SESSION_EXPIRY", "-5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TTL() != 10*time.Minute {
		t.Errorf("bad env value changed ttl: %v", cfg.TTL())
	}
	if cfg.CacheExpiry() != time.Hour {
		t.Errorf("bad env value changed cache expiry: %v", cfg.CacheExpiry())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.LogLevel = "debug"
	cfg.Session.TTLMinutes = 20
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("log level lost in round trip: %q", loaded.LogLevel)
	}
	if loaded.TTL() != 20*time.Minute {
		t.Errorf("ttl lost in round trip: %v", loaded.TTL())
	}
}
