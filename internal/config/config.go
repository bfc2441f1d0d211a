// Package config loads wikirace settings from defaults, an optional TOML
// file and WIKIRACE_* environment variables, in that order. Command-line
// flags are applied by the binaries on top of the result.
//
// TOML format:
//
//	source = "wiki"
//	wiki_base_url = "https://en.wikipedia.org/wiki/"
//	limit = 25
//	request_timeout = "15s"
//	rate = 10.0
//	cache_dir = "/home/me/.wikirace/cache"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/latebit/wikirace/internal/logging"
)

// Source names.
const (
	SourceWiki = "wiki"
	SourceMark = "mark"
)

// Config holds the solver configuration.
type Config struct {
	Source      string `toml:"source"`
	WikiBaseURL string `toml:"wiki_base_url"`
	LinkPrefix  string `toml:"link_prefix"`
	UserAgent   string `toml:"user_agent"`
	MarkHost    string `toml:"mark_host"`
	Insecure    bool   `toml:"insecure"`

	Limit          int           `toml:"limit"`
	Workers        int           `toml:"workers"`
	MaxRounds      int           `toml:"max_rounds"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	ResolveTimeout time.Duration `toml:"resolve_timeout"`

	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`

	CacheDir    string `toml:"cache_dir"`
	LogFormat   string `toml:"log_format"`
	LogLevel    string `toml:"log_level"`
	MetricsFile string `toml:"metrics_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:         SourceWiki,
		WikiBaseURL:    "https://en.wikipedia.org/wiki/",
		LinkPrefix:     "/wiki/",
		Limit:          25,
		RequestTimeout: 15 * time.Second,
		Rate:           10,
		Burst:          10,
		LogFormat:      "text",
		LogLevel:       "warn",
	}
}

// DefaultPath returns the default config file path (~/.wikirace/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wikirace", "config.toml")
}

// Load builds the configuration. An empty path means DefaultPath, and a
// missing file at the default path is not an error. An explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, flags func(*Config) error) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.loadEnv()

	if flags != nil {
		if err := flags(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if _, err := toml.Decode(string(data), c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Source = getEnv("WIKIRACE_SOURCE", c.Source)
	c.WikiBaseURL = getEnv("WIKIRACE_WIKI_BASE_URL", c.WikiBaseURL)
	c.LinkPrefix = getEnv("WIKIRACE_LINK_PREFIX", c.LinkPrefix)
	c.UserAgent = getEnv("WIKIRACE_USER_AGENT", c.UserAgent)
	c.MarkHost = getEnv("WIKIRACE_MARK_HOST", c.MarkHost)
	c.Insecure = getEnvAsBool("WIKIRACE_INSECURE", c.Insecure)

	c.Limit = getEnvAsInt("WIKIRACE_LIMIT", c.Limit)
	c.Workers = getEnvAsInt("WIKIRACE_WORKERS", c.Workers)
	c.MaxRounds = getEnvAsInt("WIKIRACE_MAX_ROUNDS", c.MaxRounds)
	c.RequestTimeout = getEnvAsDuration("WIKIRACE_REQUEST_TIMEOUT", c.RequestTimeout)
	c.ResolveTimeout = getEnvAsDuration("WIKIRACE_RESOLVE_TIMEOUT", c.ResolveTimeout)

	c.Rate = getEnvAsFloat("WIKIRACE_RATE", c.Rate)
	c.Burst = getEnvAsInt("WIKIRACE_BURST", c.Burst)

	c.CacheDir = getEnv("WIKIRACE_CACHE_DIR", c.CacheDir)
	c.LogFormat = getEnv("WIKIRACE_LOG_FORMAT", c.LogFormat)
	c.LogLevel = getEnv("WIKIRACE_LOG_LEVEL", c.LogLevel)
	c.MetricsFile = getEnv("WIKIRACE_METRICS_FILE", c.MetricsFile)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceWiki:
		if c.WikiBaseURL == "" {
			return errors.New("wiki source requires a base URL")
		}
	case SourceMark:
		if c.MarkHost == "" {
			return errors.New("mark source requires a host (set WIKIRACE_MARK_HOST or use -host)")
		}
	default:
		return fmt.Errorf("unknown source %q (expected %q or %q)", c.Source, SourceWiki, SourceMark)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("max rounds must not be negative, got %d", c.MaxRounds)
	}
	if c.RequestTimeout < 0 || c.ResolveTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
