// Package config defines the todochat application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level todochat configuration.
type Config struct {
	Server    ServerConfig   `json:"server" yaml:"server"`
	Auth      AuthConfig     `json:"auth" yaml:"auth"`
	Database  DatabaseConfig `json:"database" yaml:"database"`
	Oracle    OracleConfig   `json:"oracle" yaml:"oracle"`
	LogLevel  string         `json:"log_level" yaml:"log_level"`
	LogFormat string         `json:"log_format" yaml:"log_format"` // "text" or "json"
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"` // listen address, e.g., ":8000"
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// AuthConfig controls bearer-token issuance.
type AuthConfig struct {
	JWTSecret string        `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl" yaml:"token_ttl"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// OracleConfig configures the optional text-generation backend used by the
// command interpreter.
type OracleConfig struct {
	Provider     string        `json:"provider" yaml:"provider"` // "none", "gemini", "openai", "anthropic", "mock"
	APIKey       string        `json:"api_key,omitempty" yaml:"api_key"`
	Model        string        `json:"model,omitempty" yaml:"model"`
	BaseURL      string        `json:"base_url,omitempty" yaml:"base_url"`
	MaxTokens    int           `json:"max_tokens" yaml:"max_tokens"`
	Temperature  float32       `json:"temperature" yaml:"temperature"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	HistoryTurns int           `json:"history_turns" yaml:"history_turns"`
}

// Oracle provider names.
const (
	ProviderNone      = "none"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Enabled reports whether the oracle should be constructed at all. Hosted
// providers without an API key are treated as disabled.
func (o OracleConfig) Enabled() bool {
	switch o.Provider {
	case "", ProviderNone:
		return false
	case ProviderMock:
		return true
	default:
		return o.APIKey != ""
	}
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
		},
		Database: DatabaseConfig{
			Path: "./data/todo.db",
		},
		Oracle: OracleConfig{
			Provider:     ProviderNone,
			MaxTokens:    500,
			Temperature:  0.1,
			Timeout:      5 * time.Second,
			HistoryTurns: 5,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str(&c.Server.Addr, "TODO_ADDR")
	str(&c.Auth.JWTSecret, "TODO_JWT_SECRET", "JWT_SECRET_KEY")
	str(&c.Database.Path, "TODO_DB_PATH")
	str(&c.LogLevel, "TODO_LOG_LEVEL")
	str(&c.Oracle.Provider, "TODO_ORACLE_PROVIDER")
	str(&c.Oracle.Model, "TODO_ORACLE_MODEL")

	if v, ok := lookup("TODO_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	if v, ok := lookup("TODO_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TODO_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}

	if c.Oracle.APIKey == "" {
		switch c.Oracle.Provider {
		case ProviderGemini:
			str(&c.Oracle.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
		case ProviderOpenAI:
			str(&c.Oracle.APIKey, "OPENAI_API_KEY")
		case ProviderAnthropic:
			str(&c.Oracle.APIKey, "ANTHROPIC_API_KEY")
		}
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Oracle.Provider {
	case "", ProviderNone, ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("oracle.provider %q is not supported", c.Oracle.Provider)
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		return fmt.Errorf("oracle.temperature must be within [0, 2], got %v", c.Oracle.Temperature)
	}
	if c.Oracle.MaxTokens <= 0 {
		return fmt.Errorf("oracle.max_tokens must be positive, got %d", c.Oracle.MaxTokens)
	}
	return nil
}
