package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Site         SiteConfig         `yaml:"site"`
	Auth         AuthConfig         `yaml:"auth"`
	Sync         SyncConfig         `yaml:"sync"`
	Media        MediaConfig        `yaml:"media"`
	ContentPulse ContentPulseConfig `yaml:"contentpulse"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig describes the site records are published under.
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AuthConfig contains ingestion authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// SyncConfig controls how incoming payloads are reconciled.
type SyncConfig struct {
	DefaultStatus  string `yaml:"default_status"`
	ResolveAuthors bool   `yaml:"resolve_authors"`
	SEOIntegration string `yaml:"seo_integration"`
}

// MediaConfig contains media library and sideload settings.
type MediaConfig struct {
	LibraryPath    string   `yaml:"library_path"`
	SideloadImages bool     `yaml:"sideload_images"`
	FallbackImport bool     `yaml:"fallback_import"`
	FetchTimeout   Duration `yaml:"fetch_timeout"`
	MaxRedirects   int      `yaml:"max_redirects"`
}

// ContentPulseConfig contains settings for the outbound ContentPulse client.
type ContentPulseConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("PULSEBRIDGE_CONFIG_PATH", "config/pulsebridge.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/pulsebridge.db",
		},
		Site: SiteConfig{
			BaseURL: "http://localhost:8080",
		},
		Sync: SyncConfig{
			DefaultStatus:  "draft",
			ResolveAuthors: true,
			SEOIntegration: "auto",
		},
		Media: MediaConfig{
			LibraryPath:    "data/media",
			SideloadImages: true,
			FallbackImport: true,
			FetchTimeout:   Duration(20 * time.Second),
			MaxRedirects:   3,
		},
		ContentPulse: ContentPulseConfig{
			APIURL: "http://localhost:9000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("PULSEBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PULSEBRIDGE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PULSEBRIDGE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PULSEBRIDGE_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("PULSEBRIDGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Site
	if v := os.Getenv("PULSEBRIDGE_SITE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}

	// Auth
	if v := os.Getenv("PULSEBRIDGE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Sync
	if v := os.Getenv("PULSEBRIDGE_DEFAULT_STATUS"); v != "" {
		cfg.Sync.DefaultStatus = v
	}
	if v := os.Getenv("PULSEBRIDGE_RESOLVE_AUTHORS"); v != "" {
		cfg.Sync.ResolveAuthors = v == "true" || v == "1"
	}
	if v := os.Getenv("PULSEBRIDGE_SEO_INTEGRATION"); v != "" {
		cfg.Sync.SEOIntegration = v
	}

	// Media
	if v := os.Getenv("PULSEBRIDGE_MEDIA_PATH"); v != "" {
		cfg.Media.LibraryPath = v
	}
	if v := os.Getenv("PULSEBRIDGE_SIDELOAD_IMAGES"); v != "" {
		cfg.Media.SideloadImages = v == "true" || v == "1"
	}
	if v := os.Getenv("PULSEBRIDGE_FALLBACK_IMPORT"); v != "" {
		cfg.Media.FallbackImport = v == "true" || v == "1"
	}
	if v := os.Getenv("PULSEBRIDGE_MEDIA_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Media.FetchTimeout = Duration(d)
		}
	}

	// ContentPulse
	if v := os.Getenv("CONTENTPULSE_API_URL"); v != "" {
		cfg.ContentPulse.APIURL = v
	}
	if v := os.Getenv("CONTENTPULSE_API_KEY"); v != "" {
		cfg.ContentPulse.APIKey = v
	}

	// Log
	if v := os.Getenv("PULSEBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PULSEBRIDGE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (PULSEBRIDGE_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if seo := c.Sync.SEOIntegration; seo != "auto" && seo != "yoast" && seo != "rankmath" && seo != "none" {
		return fmt.Errorf("invalid seo_integration %q", seo)
	}

	// Dev mode bypasses API key validation
	if os.Getenv("PULSEBRIDGE_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("PULSEBRIDGE_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
