// Package config loads the intake configuration file and applies
// environment overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/intake/pkg/domain"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "intake.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the full configuration for the intake CLI and server.
type Config struct {
	// Model is the chat model used for extraction and summaries.
	Model string `yaml:"model"`

	// OpenAIAPIKey comes from the environment, never from the file.
	OpenAIAPIKey string `yaml:"-"`

	MaxAttemptsPerField   int           `yaml:"max_attempts_per_field"`
	MaxGenerationAttempts int           `yaml:"max_generation_attempts"`
	RetryDelay            time.Duration `yaml:"retry_delay"`

	Store    StoreConfig    `yaml:"store"`
	Airtable AirtableConfig `yaml:"airtable"`
	Fields   []FieldConfig  `yaml:"fields"`

	Listen string `yaml:"listen"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AirtableConfig identifies the downstream record table. The API key
// comes from the environment.
type AirtableConfig struct {
	APIKey string `yaml:"-"`
	BaseID string `yaml:"base_id"`
	Table  string `yaml:"table"`
}

// FieldConfig declares one collected field.
type FieldConfig struct {
	Name      string `yaml:"name"`
	Question  string `yaml:"question"`
	Required  bool   `yaml:"required"`
	Validator string `yaml:"validator"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Model:                 "gpt-4o-mini",
		MaxAttemptsPerField:   3,
		MaxGenerationAttempts: 3,
		RetryDelay:            500 * time.Millisecond,
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    ".intake/sessions",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Airtable: AirtableConfig{Table: "Leads"},
		Listen:   ":8080",
	}
}

// Load reads the config file at path, falling back to defaults when
// the default path does not exist. Environment variables override
// credentials afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("AIRTABLE_API_KEY"); v != "" {
		cfg.Airtable.APIKey = v
	}
	if v := os.Getenv("AIRTABLE_BASE_ID"); v != "" {
		cfg.Airtable.BaseID = v
	}
	if v := os.Getenv("AIRTABLE_TABLE_NAME"); v != "" {
		cfg.Airtable.Table = v
	}
	if v := os.Getenv("INTAKE_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("field declaration without a name")
		}
	}
	return nil
}

// Schema builds the collection schema from the configured fields,
// defaulting to the stock lead-intake declaration when none are set.
func (c *Config) Schema() (*domain.Schema, error) {
	if len(c.Fields) == 0 {
		return domain.DefaultSchema(), nil
	}

	fields := make([]domain.Field, 0, len(c.Fields))
	for _, fc := range c.Fields {
		kind := fc.Validator
		if kind == "" {
			kind = "text"
		}
		validate, err := domain.ValidatorByKind(kind)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fc.Name, err)
		}
		question := fc.Question
		if question == "" {
			question = fmt.Sprintf("What's your %s?", fc.Name)
		}
		fields = append(fields, domain.Field{
			Name:     fc.Name,
			Required: fc.Required,
			Question: question,
			Validate: validate,
		})
	}
	return domain.NewSchema(fields...)
}

// AirtableConfigured reports whether record persistence can be wired.
func (c *Config) AirtableConfigured() bool {
	return c.Airtable.APIKey != "" && c.Airtable.BaseID != "" && c.Airtable.Table != ""
}
