// Package config loads and saves LINA configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for configuration by default.
const DefaultPath = ".lina/config.yaml"

// Config holds all LINA configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Vector log store configuration
	LogStore LogStoreConfig `yaml:"log_store"`

	// Session persistence
	Session SessionConfig `yaml:"session"`

	// Remote server management (SSH)
	Remote RemoteConfig `yaml:"remote"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Log file auto-ingestion
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language model collaborator.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// EmbeddingConfig configures the embedding collaborator.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, genai

	// Ollama configuration
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	// GenAI configuration
	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	// Retry policy for transient failures
	MaxAttempts int    `yaml:"max_attempts"`
	BaseBackoff string `yaml:"base_backoff"`
}

// LogStoreConfig configures the vector log store.
type LogStoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	Dimension    int    `yaml:"dimension"`  // Fixed embedding dimension D
	BatchSize    int    `yaml:"batch_size"` // Ingestion batch size
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	Backend      string `yaml:"backend"` // memory, sqlite
	DatabasePath string `yaml:"database_path"`
}

// RemoteConfig configures the SSH executor for server management.
type RemoteConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures the ingestion directory watcher.
type WatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "LINA",
		Version: "1.0.0",

		LLM: LLMConfig{
			Model:           "gemini-2.5-flash",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "120s",
			MaxOutputTokens: 8192,
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			MaxAttempts:    5,
			BaseBackoff:    "1s",
		},

		LogStore: LogStoreConfig{
			DatabasePath: filepath.Join(".lina", "logs.db"),
			Dimension:    768,
			BatchSize:    1000,
		},

		Session: SessionConfig{
			Backend:      "sqlite",
			DatabasePath: filepath.Join(".lina", "sessions.db"),
		},

		Remote: RemoteConfig{
			Port:    22,
			Timeout: "30s",
		},

		Server: ServerConfig{
			Addr: ":8000",
		},

		Watch: WatchConfig{
			Enabled:   false,
			Directory: filepath.Join(".lina", "drop"),
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.Embedding.GenAIAPIKey == "" {
			c.Embedding.GenAIAPIKey = key
		}
	}
	if key := os.Getenv("LINA_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	// Remote server credentials from environment
	if host := os.Getenv("LINA_SSH_HOST"); host != "" {
		c.Remote.Host = host
	}
	if user := os.Getenv("LINA_SSH_USER"); user != "" {
		c.Remote.Username = user
	}
	if pass := os.Getenv("LINA_SSH_PASSWORD"); pass != "" {
		c.Remote.Password = pass
	}

	// Database paths from environment
	if path := os.Getenv("LINA_LOG_DB"); path != "" {
		c.LogStore.DatabasePath = path
	}
	if path := os.Getenv("LINA_SESSION_DB"); path != "" {
		c.Session.DatabasePath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetRemoteTimeout returns the SSH timeout as a duration.
func (c *Config) GetRemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetEmbeddingBackoff returns the base embedding retry backoff as a duration.
func (c *Config) GetEmbeddingBackoff() time.Duration {
	d, err := time.ParseDuration(c.Embedding.BaseBackoff)
	if err != nil {
		return time.Second
	}
	return d
}
