package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	LogLevel string          `yaml:"log_level"`
	API      MAPIConfig      `yaml:"api"`
	Storage  MStorageConfig  `yaml:"storage"`
	Network  MNetworkConfig  `yaml:"network"`
	Pipeline MPipelineConfig `yaml:"pipeline"`
}

type MAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // overridden by ALPHA_VANTAGE_API_KEY
}

type MStorageConfig struct {
	DBType   string `yaml:"db_type"` // "postgres" or "sqlite"
	DBPath   string `yaml:"db_path"` // sqlite only
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type MNetworkConfig struct {
	RequestTimeout    int    `yaml:"timeout"`
	MaxRetries        int    `yaml:"retries"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	UserAgent         string `yaml:"user_agent"`
}

type MPipelineConfig struct {
	Symbols           []string `yaml:"symbols"`
	DataRetentionDays int      `yaml:"data_retention_days"`
}
