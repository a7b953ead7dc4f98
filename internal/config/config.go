// Package config loads settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/nerdscourt/canon-core/internal/logging"
)

// Archive backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the whole application configuration.
type Config struct {
	Logger      logging.Config
	Server      ServerConfig
	Convex      ConvexConfig
	HuggingFace HuggingFaceConfig
	Archive     ArchiveConfig
	LLM         LLMConfig
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port     int    `env:"SERVER_PORT" env-default:"5000"`
	APIKey   string `env:"CUSTOMGPT_API_KEY"`
	MediaDir string `env:"MEDIA_DIR" env-default:"media"`
}

// ConvexConfig configures the backend bridge.
type ConvexConfig struct {
	URL     string        `env:"CONVEX_URL"`
	APIKey  string        `env:"CONVEX_API_KEY"`
	Timeout time.Duration `env:"CONVEX_TIMEOUT" env-default:"30s"`
}

// HuggingFaceConfig configures the media bridge.
type HuggingFaceConfig struct {
	Token   string        `env:"HUGGINGFACE_API_TOKEN"`
	Timeout time.Duration `env:"HUGGINGFACE_TIMEOUT" env-default:"120s"`
}

// ArchiveConfig selects and locates the lore archive.
type ArchiveConfig struct {
	Backend    string `env:"ARCHIVE_BACKEND" env-default:"file"`
	Path       string `env:"NERDBIBLE_PATH" env-default:"nerd_bible_core.json"`
	SQLitePath string `env:"NERDBIBLE_SQLITE_PATH" env-default:"nerd_bible.db"`
	RedisURL   string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

// LLMConfig configures the OpenAI-compatible responder. Without an API key
// agents echo.
type LLMConfig struct {
	BaseURL string `env:"LLM_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	APIKey  string `env:"LLM_API_KEY"`
}

// Load reads .env files (missing files are ignored) and then the environment.
// With no files given, ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	switch c.Archive.Backend {
	case BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("invalid ARCHIVE_BACKEND %q (use file, sqlite or redis)", c.Archive.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	return nil
}

// ValidateServe checks the extra settings the HTTP service needs.
func (c *Config) ValidateServe() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("CUSTOMGPT_API_KEY is required to serve")
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Usage describes every supported variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
