// Package config loads kbchat settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL        string        `yaml:"api_url"`
	AssetURL      string        `yaml:"asset_url"`
	ClientTimeout time.Duration `yaml:"client_timeout"`
	RateLimit     float64       `yaml:"rate_limit"`

	// Session persistence
	SessionFile string `yaml:"session_file"`

	// Data fetching
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	ReplayReferences bool          `yaml:"replay_references"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
	RawLevel string     `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:        "http://localhost:5000/api/v1",
		AssetURL:      "http://localhost:5000",
		ClientTimeout: 0,
		RateLimit:     0,
		SessionFile:   filepath.Join(configDir(), "auth-storage.json"),
		CacheTTL:      5 * time.Minute,
		LogFile:       filepath.Join(os.TempDir(), "kbchat.log"),
		LogLevel:      slog.LevelWarn,
		RawLevel:      "WARN",
	}
}

// Load reads configuration: defaults, then the YAML file named by
// KBCHAT_CONFIG (if it exists), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	path := getEnv("KBCHAT_CONFIG", filepath.Join(configDir(), "config.yaml"))
	if err := cfg.mergeFile(path); err != nil {
		return cfg, err
	}

	cfg.APIURL = strings.TrimRight(getEnv("KBCHAT_API_URL", cfg.APIURL), "/")
	cfg.AssetURL = strings.TrimRight(getEnv("KBCHAT_ASSET_URL", cfg.AssetURL), "/")
	cfg.SessionFile = getEnv("KBCHAT_SESSION_FILE", cfg.SessionFile)
	cfg.LogFile = getEnv("KBCHAT_LOG_FILE", cfg.LogFile)
	cfg.RawLevel = getEnv("KBCHAT_LOG_LEVEL", cfg.RawLevel)
	cfg.LogLevel = parseLogLevel(cfg.RawLevel)

	var err error
	if cfg.ReplayReferences, err = getBool("KBCHAT_REPLAY_REFERENCES", cfg.ReplayReferences); err != nil {
		return cfg, err
	}
	if cfg.ClientTimeout, err = getDuration("KBCHAT_CLIENT_TIMEOUT", cfg.ClientTimeout); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = getDuration("KBCHAT_CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}
	if v := os.Getenv("KBCHAT_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return cfg, fmt.Errorf("invalid KBCHAT_RATE_LIMIT %q", v)
		}
		cfg.RateLimit = rps
	}

	return cfg, nil
}

// mergeFile overlays values from a YAML file. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.LogLevel = parseLogLevel(c.RawLevel)
	return nil
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "kbchat")
	}
	return filepath.Join(os.TempDir(), "kbchat")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultVal, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
