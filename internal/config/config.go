// Package config loads the reader's YAML configuration, applies .env and
// environment overrides, and validates the result.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
)

// Environment variables that override file values.
const (
	EnvPort      = "QURAN_PORT"
	EnvData      = "QURAN_DATA"
	EnvLogLevel  = "QURAN_LOG_LEVEL"
	EnvLogFormat = "QURAN_LOG_FORMAT"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "config.yaml"

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig configures the JSON API subtree.
type APIConfig struct {
	RateLimitRequests int      `yaml:"rate_limit_requests"` // per minute, 0 disables
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
	AllowedOrigins    []string `yaml:"allowed_origins"` // empty allows all
}

// SearchConfig bounds search result listings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// TLSConfig holds HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Config is the root configuration.
type Config struct {
	Port     int          `yaml:"port"`
	DataPath string       `yaml:"data_path"` // empty means the embedded dataset
	Log      LogConfig    `yaml:"log"`
	API      APIConfig    `yaml:"api"`
	Search   SearchConfig `yaml:"search"`
	TLS      TLSConfig    `yaml:"tls"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Port: 8080,
		Log:  LogConfig{Level: "info", Format: "text"},
		API: APIConfig{
			RateLimitRequests: 120,
			RateLimitBurst:    20,
		},
		Search: SearchConfig{DefaultLimit: 200},
	}
}

// Load reads path. A missing file yields Default. Values left unset in the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.NewIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errors.ParseError{Format: "yaml", Path: path, Message: err.Error(), Err: err}
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadWithEnv loads .env files (if present), then path, then applies
// environment overrides and validates.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	loadDotEnv(envFiles...)
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv never overrides variables already present in the process
// environment. Missing files are ignored.
func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// ApplyEnv overrides fields from QURAN_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidation(EnvPort, v, "must be an integer")
		}
		c.Port = port
	}
	if v := os.Getenv(EnvData); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate checks ranges and file references.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.NewValidation("port", strconv.Itoa(c.Port), "must be between 1 and 65535")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewValidation("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.NewValidation("log.format", c.Log.Format, "must be text or json")
	}
	if c.API.RateLimitRequests < 0 || c.API.RateLimitBurst < 0 {
		return errors.NewValidation("api.rate_limit_requests", strconv.Itoa(c.API.RateLimitRequests), "must not be negative")
	}
	if c.Search.DefaultLimit < 1 {
		return errors.NewValidation("search.default_limit", strconv.Itoa(c.Search.DefaultLimit), "must be positive")
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return errors.NewValidation("tls", "", "cert_file and key_file are required when TLS is enabled")
	}
	return nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = d.Search.DefaultLimit
	}
	if cfg.API.RateLimitRequests > 0 && cfg.API.RateLimitBurst == 0 {
		cfg.API.RateLimitBurst = d.API.RateLimitBurst
	}
}
