package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the KV backup tool
type Config struct {
	// Cloudflare API credentials and identifiers
	Cloudflare CloudflareConfig `yaml:"cloudflare" json:"cloudflare"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Backup pipeline settings
	Backup BackupConfig `yaml:"backup" json:"backup"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CloudflareConfig identifies the account and namespace being exported
type CloudflareConfig struct {
	APIToken    string `yaml:"api_token" json:"api_token"`
	AccountID   string `yaml:"account_id" json:"account_id"`
	NamespaceID string `yaml:"namespace_id" json:"namespace_id"`
}

// RateLimitConfig bounds the aggregate request rate against the API.
// Defaults stay well inside Cloudflare's documented limit of 1200
// requests per 5 minutes.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests"`
	TimeWindow  time.Duration `yaml:"time_window" json:"time_window"`
}

// BackupConfig holds the pipeline settings
type BackupConfig struct {
	Destination    string        `yaml:"destination" json:"destination"`
	Workers        int           `yaml:"workers" json:"workers"`
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	MaxPages       int           `yaml:"max_pages" json:"max_pages"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	CheckpointFile string        `yaml:"checkpoint_file" json:"checkpoint_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			MaxRequests: 1000,
			TimeWindow:  5 * time.Minute,
		},
		Backup: BackupConfig{
			Destination:    "./data",
			Workers:        8,
			BatchSize:      1000,
			MaxPages:       10,
			MaxRetries:     5,
			InitialBackoff: time.Second,
			CheckpointFile: "cursor.txt",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then an optional YAML
// file, then environment variables, then command line flag overrides.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	cfg.ApplyFlags(flags)

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables, including a
// .env file in the working directory if one exists.
func (c *Config) LoadFromEnv() error {
	// Best effort; a missing .env file is fine
	_ = godotenv.Load()

	if token := os.Getenv("KVBACKUP_API_TOKEN"); token != "" {
		c.Cloudflare.APIToken = token
	}
	if account := os.Getenv("KVBACKUP_ACCOUNT_ID"); account != "" {
		c.Cloudflare.AccountID = account
	}
	if namespace := os.Getenv("KVBACKUP_NAMESPACE_ID"); namespace != "" {
		c.Cloudflare.NamespaceID = namespace
	}
	if dest := os.Getenv("KVBACKUP_DESTINATION"); dest != "" {
		c.Backup.Destination = dest
	}
	if workers := os.Getenv("KVBACKUP_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Backup.Workers = val
		}
	}
	if maxReq := os.Getenv("KVBACKUP_MAX_REQUESTS"); maxReq != "" {
		if val, err := strconv.Atoi(maxReq); err == nil && val > 0 {
			c.RateLimit.MaxRequests = val
		}
	}
	if level := os.Getenv("KVBACKUP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	return nil
}

// ApplyFlags applies command line flag overrides
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for name, value := range flags {
		switch name {
		case "api-token":
			if v, ok := value.(string); ok && v != "" {
				c.Cloudflare.APIToken = v
			}
		case "account-id":
			if v, ok := value.(string); ok && v != "" {
				c.Cloudflare.AccountID = v
			}
		case "namespace-id":
			if v, ok := value.(string); ok && v != "" {
				c.Cloudflare.NamespaceID = v
			}
		case "dest":
			if v, ok := value.(string); ok && v != "" {
				c.Backup.Destination = v
			}
		case "workers":
			if v, ok := value.(int); ok && v > 0 {
				c.Backup.Workers = v
			}
		case "batch-size":
			if v, ok := value.(int); ok && v > 0 {
				c.Backup.BatchSize = v
			}
		case "max-pages":
			if v, ok := value.(int); ok && v > 0 {
				c.Backup.MaxPages = v
			}
		case "rate-limit":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.MaxRequests = v
			}
		case "checkpoint":
			if v, ok := value.(string); ok && v != "" {
				c.Backup.CheckpointFile = v
			}
		case "debug":
			if v, ok := value.(bool); ok && v {
				c.Logging.Level = "debug"
			}
		}
	}
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".kvbackup.yaml",
		".kvbackup.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "kvbackup", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".kvbackup.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credential errors are
// fatal before any network activity starts.
func (c *Config) Validate() error {
	var errs []error

	if c.Cloudflare.APIToken == "" {
		errs = append(errs, errors.New("API token is required"))
	}
	if c.Cloudflare.AccountID == "" {
		errs = append(errs, errors.New("account ID is required"))
	}
	if c.Cloudflare.NamespaceID == "" {
		errs = append(errs, errors.New("namespace ID is required"))
	}

	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("max requests must be positive"))
	}
	if c.RateLimit.TimeWindow <= 0 {
		errs = append(errs, errors.New("time window must be positive"))
	}

	if c.Backup.Destination == "" {
		errs = append(errs, errors.New("destination directory is required"))
	}
	if c.Backup.Workers <= 0 {
		errs = append(errs, errors.New("worker count must be positive"))
	}
	if c.Backup.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Backup.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Backup.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Backup.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file path is required"))
	}

	if len(errs) > 0 {
		var messages []string
		for _, err := range errs {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
