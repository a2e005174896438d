package config

import (
	"os"
	"strconv"
	"time"

	"github.com/tracklayer/docxrevise/internal/sessionconfig"
)

// Config holds application configuration loaded from environment variables,
// plus editing-session defaults optionally layered on top from a YAML
// settings file.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadSizeMB int64
	UploadDir       string

	// SettingsFile, if set, points at a YAML file read by sessionconfig.
	SettingsFile string

	// Session carries the resolved editing defaults (default author,
	// cache capacity) after SettingsFile and its own env-var fallbacks
	// are applied. cmd/server passes only CacheCapacity on; DefaultAuthor
	// is not read by the session cache's author resolution.
	Session sessionconfig.Settings
}

// Load reads configuration from environment variables with sensible
// defaults, then layers any SESSION_SETTINGS_FILE YAML file on top.
func Load() *Config {
	cfg := &Config{
		Port:            envInt("PORT", 8080),
		ReadTimeout:     envDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    envDuration("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxUploadSizeMB: int64(envInt("MAX_UPLOAD_SIZE_MB", 50)),
		UploadDir:       envString("UPLOAD_DIR", "/tmp/docx-uploads"),
		SettingsFile:    envString("SESSION_SETTINGS_FILE", ""),
	}

	settings, err := sessionconfig.Load(cfg.SettingsFile)
	if err != nil {
		settings = sessionconfig.Default()
	}
	if settings.DefaultAuthor == "" {
		settings.DefaultAuthor = envString("DEFAULT_AUTHOR", "")
	}
	if envCap := envInt("CACHE_CAPACITY", 0); envCap > 0 && settings.CacheCapacity == sessionconfig.Default().CacheCapacity {
		settings.CacheCapacity = envCap
	}
	cfg.Session = settings

	return cfg
}

func envString(key, fallback string) string {
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
