package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL         string        `env:"POSTDESK_BASE_URL"`
	CacheDir        string        `env:"POSTDESK_CACHE_DIR"`
	DBPath          string        `env:"POSTDESK_DB_PATH"`
	LogPath         string        `env:"POSTDESK_LOG_PATH"`
	LogLevel        string        `env:"POSTDESK_LOG_LEVEL"`
	RequestTimeout  time.Duration `env:"POSTDESK_REQUEST_TIMEOUT"`
	PostsTTL        time.Duration `env:"POSTDESK_POSTS_TTL"`
	RefreshInterval time.Duration `env:"POSTDESK_REFRESH_INTERVAL"`
	PersistSession  bool          `env:"POSTDESK_PERSIST_SESSION"`
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "postdesk")
	return Config{
		BaseURL:         "http://localhost:8000",
		CacheDir:        cacheDir,
		DBPath:          filepath.Join(cacheDir, "cache.db"),
		LogPath:         filepath.Join(cacheDir, "debug.log"),
		LogLevel:        "info",
		RequestTimeout:  10 * time.Second,
		PostsTTL:        60 * time.Second,
		RefreshInterval: 30 * time.Second,
		PersistSession:  true,
	}
}

// Load starts from Default, reads a .env file from the working directory
// when one exists, and overlays POSTDESK_* environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	// A moved cache dir takes the files with it unless they were set too.
	if dir, ok := os.LookupEnv("POSTDESK_CACHE_DIR"); ok {
		if _, set := os.LookupEnv("POSTDESK_DB_PATH"); !set {
			cfg.DBPath = filepath.Join(dir, "cache.db")
		}
		if _, set := os.LookupEnv("POSTDESK_LOG_PATH"); !set {
			cfg.LogPath = filepath.Join(dir, "debug.log")
		}
	}

	if cfg.RefreshInterval <= 0 {
		return Config{}, fmt.Errorf("POSTDESK_REFRESH_INTERVAL must be positive, got %s", cfg.RefreshInterval)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseLevel maps a POSTDESK_LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
