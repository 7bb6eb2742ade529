package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultLocale       = "en"
	defaultLogLevel     = "info"
	defaultFetchTimeout = 15 * time.Second
	defaultMaxBodyBytes = 10 << 20
	defaultUserAgent    = "icalyse/1.0"
)

// FetchConfig controls how remote calendar feeds are downloaded.
type FetchConfig struct {
	// Timeout bounds a single feed download.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxBodyBytes caps the size of a feed body; larger feeds fail to load.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
	// UserAgent is sent with every feed request.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the export endpoints.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used to interpret from/to dates, derive month
	// buckets and format timestamps. Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale is a BCP 47 tag used for summary collation (e.g. "fr").
	Locale string `yaml:"locale" json:"locale"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// BookmarksPath is the YAML file backing the bookmark store.
	BookmarksPath string `yaml:"bookmarks_path" json:"bookmarks_path"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		Timezone: "",
		Locale:   defaultLocale,
		LogLevel: defaultLogLevel,
		Fetch: FetchConfig{
			Timeout:      defaultFetchTimeout,
			MaxBodyBytes: defaultMaxBodyBytes,
			UserAgent:    defaultUserAgent,
		},
		BookmarksPath: "./var/bookmarks.yaml",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = defaultFetchTimeout
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
	if c.BookmarksPath == "" {
		c.BookmarksPath = "./var/bookmarks.yaml"
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty or
// unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path and applies environment
// overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - In both cases, a .env file in the working directory (if any) and
//     ICALYSE_* environment variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// FromEnv returns the defaults overlaid with .env and ICALYSE_* variables,
// without touching any config file.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overlays ICALYSE_* variables. A missing .env file is not an error.
func (c *Config) applyEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv("ICALYSE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("ICALYSE_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("ICALYSE_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("ICALYSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ICALYSE_BOOKMARKS_PATH"); v != "" {
		c.BookmarksPath = v
	}
	if v := os.Getenv("ICALYSE_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ICALYSE_FETCH_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("ICALYSE_FETCH_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse ICALYSE_FETCH_MAX_BODY_BYTES: %w", err)
		}
		c.Fetch.MaxBodyBytes = n
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory followed by a rename, leaving the file with 0600 permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icalyse-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
