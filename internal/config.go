package internal

import (
	"errors"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/brainboard/internal/backend"
	pkgconfig "github.com/starford/brainboard/pkg/config"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Backend BackendConfig     `yaml:"backend"`
	Cache   CacheConfig       `yaml:"cache"`
	Inbox   InboxConfig       `yaml:"inbox"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Inbox.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// BackendConfig holds the notes backend connection settings.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CacheConfig holds the read cache settings. A zero Size disables the cache.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Enabled reports whether reads are cached.
func (c *CacheConfig) Enabled() bool {
	return c.Size > 0
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.TTL, validation.When(c.Size > 0, validation.Required, validation.Min(time.Millisecond))),
	)
}

// InboxConfig holds the watched inbox settings.
//
// Rate is the maximum number of files ingested per second; zero means
// unlimited. Summarize adds the summarize step to every ingestion.
type InboxConfig struct {
	Path      string  `yaml:"path"`
	Rate      float64 `yaml:"rate"`
	Summarize bool    `yaml:"summarize"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Rate, validation.Min(0.0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Backend: BackendConfig{
			BaseURL: backend.DefaultBaseURL,
			Timeout: backend.DefaultTimeout,
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  30 * time.Second,
		},
		Inbox: InboxConfig{
			Path: "./inbox",
			Rate: 1,
		},
	}
}

// EnvBackendURL overrides backend.base_url when set.
const EnvBackendURL = "BRAINBOARD_BACKEND_URL"

// LoadConfig reads the YAML file at path over the defaults and applies
// environment overrides. A missing file keeps the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Read(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if u := os.Getenv(EnvBackendURL); u != "" {
		cfg.Backend.BaseURL = u
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
