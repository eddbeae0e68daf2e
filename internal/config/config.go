package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	HTTP     struct {
		Listen string `json:"listen"`
	} `json:"http"`
	Session struct {
		TTLMinutes             int `json:"ttl_minutes"`
		ResumeGraceMinutes     int `json:"resume_grace_minutes"`
		CleanupIntervalSeconds int `json:"cleanup_interval_seconds"`
		CacheExpirySeconds     int `json:"cache_expiry_seconds"`
	} `json:"session"`
	Redis struct {
		Addr string `json:"addr"`
	} `json:"redis"`
	Database struct {
		URL string `json:"url"`
	} `json:"database"`
	JWT struct {
		Secret      string `json:"secret"`
		ExpiryHours int    `json:"expiry_hours"`
	} `json:"jwt"`
}

// TTL is the maximum idle duration before a session expires.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// ResumeGrace is how long after a drop the session may be reattached.
func (c *Config) ResumeGrace() time.Duration {
	return time.Duration(c.Session.ResumeGraceMinutes) * time.Minute
}

// CleanupInterval is the sweeper tick period.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Session.CleanupIntervalSeconds) * time.Second
}

// CacheExpiry is the per-entry TTL for cached sessions.
func (c *Config) CacheExpiry() time.Duration {
	return time.Duration(c.Session.CacheExpirySeconds) * time.Second
}

// JWTExpiry is the bearer-token lifetime.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".vani-gateway"),
		LogLevel: "info",
	}
	cfg.HTTP.Listen = ":8080"
	cfg.Session.TTLMinutes = 10
	cfg.Session.ResumeGraceMinutes = 10
	cfg.Session.CleanupIntervalSeconds = 60
	cfg.Session.CacheExpirySeconds = 3600
	cfg.Redis.Addr = ""
	cfg.JWT.Secret = "default-secret-change-this"
	cfg.JWT.ExpiryHours = 24

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if listen := os.Getenv("VANI_LISTEN"); listen != "" {
		cfg.HTTP.Listen = listen
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if ttl := os.Getenv("SESSION_TTL_MINUTES"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
			cfg.Session.TTLMinutes = n
		}
	}
	if expiry := os.Getenv("SESSION_EXPIRY"); expiry != "" {
		if n, err := strconv.Atoi(expiry); err == nil && n > 0 {
			cfg.Session.CacheExpirySeconds = n
		}
	}

	return cfg, nil
}

// Save writes the config atomically.
func Save(path string, cfg *Config) error {
	return writeDefaults(path, cfg)
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
