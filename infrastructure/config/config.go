// Package config loads application configuration from the environment,
// with an optional YAML overlay file for local development. Precedence is
// defaults < overlay file < environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment names recognised by the application.
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Storage driver tags.
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Model provider tags.
const (
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Environment   string `yaml:"environment"`
	ServerAddress string `yaml:"serverAddress"`
	AWSRegion     string `yaml:"awsRegion"`
	IsLambda      bool   `yaml:"-"`

	CORS    CORSConfig    `yaml:"cors"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LLMConfig selects and tunes the model provider. The API key never comes
// from the overlay file; secrets are environment-only.
type LLMConfig struct {
	Provider     string  `yaml:"provider"`
	GeminiAPIKey string  `yaml:"-"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
}

// StorageConfig selects the graph store backend.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	TableName string `yaml:"tableName"`
}

// EventsConfig controls domain event publishing. An empty bus name disables
// publishing entirely.
type EventsConfig struct {
	BusName string `yaml:"busName"`
}

// LimitsConfig bounds prompt serialization and request body sizes.
type LimitsConfig struct {
	MaxPromptNodes int   `yaml:"maxPromptNodes"`
	MaxPromptEdges int   `yaml:"maxPromptEdges"`
	MaxBodyBytes   int64 `yaml:"maxBodyBytes"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig builds the configuration: defaults first, then the YAML overlay
// when one exists, then environment variables on top.
func LoadConfig() (*Config, error) {
	// Local development reads a .env file when present; deployed
	// environments provide everything through the process environment.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := overlayPath(); path != "" {
		if err := applyOverlay(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig.
func Load() (*Config, error) {
	return LoadConfig()
}

func defaultConfig() *Config {
	return &Config{
		Environment:   Development,
		ServerAddress: ":8080",
		AWSRegion:     "us-west-2",
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Storage: StorageConfig{
			Driver:    StorageMemory,
			TableName: "archflow-graphs",
		},
		Events: EventsConfig{
			BusName: "",
		},
		Limits: LimitsConfig{
			MaxPromptNodes: 50,
			MaxPromptEdges: 100,
			MaxBodyBytes:   1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the directory searched for overlay files. The watcher
// monitors the same directory.
func ConfigDir() string {
	return getEnv("CONFIG_DIR", "./config")
}

// overlayPath resolves the overlay file. CONFIG_FILE points at an explicit
// file; otherwise the conventional archflow.yaml inside ConfigDir is used
// when it exists.
func overlayPath() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	path := filepath.Join(ConfigDir(), "archflow.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides whatever the defaults and overlay produced. Empty
// environment values are treated as unset.
func applyEnv(cfg *Config) {
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.IsLambda = getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	cfg.CORS.AllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.TableName = getEnv("TABLE_NAME", cfg.Storage.TableName)

	cfg.Events.BusName = getEnv("EVENT_BUS_NAME", cfg.Events.BusName)

	cfg.Limits.MaxPromptNodes = getEnvInt("MAX_PROMPT_NODES", cfg.Limits.MaxPromptNodes)
	cfg.Limits.MaxPromptEdges = getEnvInt("MAX_PROMPT_EDGES", cfg.Limits.MaxPromptEdges)
	cfg.Limits.MaxBodyBytes = getEnvInt64("MAX_BODY_BYTES", cfg.Limits.MaxBodyBytes)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
}

// Validate checks that the configuration is usable. A missing provider API
// key is deliberately not an error: chat degrades to a 503 instead, so the
// rest of the API keeps working.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageDynamoDB:
	default:
		return fmt.Errorf("unsupported storage driver %q (supported: %s, %s)",
			c.Storage.Driver, StorageMemory, StorageDynamoDB)
	}

	if c.Storage.Driver == StorageDynamoDB && c.Storage.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required when the dynamodb driver is selected")
	}

	if c.Limits.MaxPromptNodes <= 0 || c.Limits.MaxPromptEdges <= 0 {
		return fmt.Errorf("prompt limits must be positive")
	}
	if c.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	if c.IsProduction() {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain \"*\" in production")
			}
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 gets a 64-bit integer environment variable with a default value.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvSlice gets a comma-separated environment variable with a default
// value. Blank entries are dropped.
func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
