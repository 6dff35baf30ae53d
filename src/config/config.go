package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"stock-pipeline/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Placeholder left behind by the setup tool. Values containing it are treated
// as absent.
const placeholderMarker = "REPLACE_ME"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides validation and environment logic
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns the built-in configuration, before file and environment
// overrides.
func Default() *models.MConfig {
	return &models.MConfig{
		Name:     "stock-pipeline",
		LogLevel: "INFO",
		API: models.MAPIConfig{
			BaseURL: "https://www.alphavantage.co/query",
		},
		Storage: models.MStorageConfig{
			DBType: "postgres",
			Host:   "localhost",
			Port:   "5432",
		},
		Network: models.MNetworkConfig{
			RequestTimeout:    30,
			MaxRetries:        3,
			RetryDelaySeconds: 5,
			UserAgent:         "stock-pipeline/1.0",
		},
		Pipeline: models.MPipelineConfig{
			Symbols:           []string{"IBM", "AAPL", "GOOGL", "MSFT"},
			DataRetentionDays: 90,
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig creates a Config from an optional YAML file, then applies
// environment overrides and validates the result.
func NewConfig(configPath string) (*Config, error) {
	modelConfig := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, modelConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	config := &Config{MConfig: modelConfig}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyEnv overrides secrets and connection settings from the environment.
// The variable names match the original deployment's .env file.
func (c *Config) applyEnv() {
	if v := envValue("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := envValue("POSTGRES_HOST"); v != "" {
		c.Storage.Host = v
	}
	if v := envValue("POSTGRES_PORT"); v != "" {
		c.Storage.Port = v
	}
	if v := envValue("POSTGRES_DB"); v != "" {
		c.Storage.Database = v
	}
	if v := envValue("POSTGRES_USER"); v != "" {
		c.Storage.User = v
	}
	if v := envValue("POSTGRES_PASSWORD"); v != "" {
		c.Storage.Password = v
	}
	if v := envValue("STOCK_SYMBOLS"); v != "" {
		c.Pipeline.Symbols = splitCSV(v)
	}
	if v := envValue("DATA_RETENTION_DAYS"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			c.Pipeline.DataRetentionDays = x
		}
	}
	if v := envValue("MAX_API_RETRIES"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			c.Network.MaxRetries = x
		}
	}
	if v := envValue("RETRY_DELAY_SECONDS"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x >= 0 {
			c.Network.RetryDelaySeconds = x
		}
	}
}

// -----------------------------------------------------------------------------

// envValue reads a variable, discarding setup placeholders.
func envValue(key string) string {
	v := os.Getenv(key)
	if strings.Contains(strings.ToUpper(v), placeholderMarker) {
		return ""
	}
	return v
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url cannot be empty")
	}

	switch c.Storage.DBType {
	case "postgres":
		// Connection settings are checked by MissingSettings so the caller
		// can report every absent value at once.
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be greater than 0")
	}
	if c.Network.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	if len(c.Pipeline.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if c.Pipeline.DataRetentionDays <= 0 {
		return fmt.Errorf("data retention days must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// MissingSettings lists the required settings that are absent. An empty
// result means the environment is complete.
func (c *Config) MissingSettings() []string {
	var missing []string

	if c.API.APIKey == "" {
		missing = append(missing, "ALPHA_VANTAGE_API_KEY")
	}

	if c.Storage.DBType == "postgres" {
		required := []struct {
			name  string
			value string
		}{
			{"POSTGRES_HOST", c.Storage.Host},
			{"POSTGRES_PORT", c.Storage.Port},
			{"POSTGRES_DB", c.Storage.Database},
			{"POSTGRES_USER", c.Storage.User},
			{"POSTGRES_PASSWORD", c.Storage.Password},
		}
		for _, r := range required {
			if r.value == "" {
				missing = append(missing, r.name)
			}
		}
	}

	return missing
}

// -----------------------------------------------------------------------------

// ConnString builds the Postgres DSN from the storage settings.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s connect_timeout=10 sslmode=disable",
		c.Storage.Host, c.Storage.Port, c.Storage.Database, c.Storage.User, c.Storage.Password,
	)
}

// -----------------------------------------------------------------------------

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
