package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer" yaml:"analyzer"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// StorageConfig locates the on-disk areas the pipeline reads and writes.
type StorageConfig struct {
	// Backend selects the record store: "file" (default) or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// DataDir is the root under which results, reports, clones, and the
	// findings dictionary live.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// TemplatesDir holds the per-report-type markdown templates.
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
	// KnowledgeBaseFile is the findings dictionary (JSON). A missing file
	// degrades enrichment to pass-through, it is not an error.
	KnowledgeBaseFile string `mapstructure:"knowledge_base_file" yaml:"knowledge_base_file"`
}

// DatabaseConfig holds the connection details for the optional
// Postgres-backed record store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// AnalyzerConfig points at the external analyzer service.
type AnalyzerConfig struct {
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DefaultPlan string        `mapstructure:"default_plan" yaml:"default_plan"`
}

// GeneratorConfig configures the optional external report generator.
type GeneratorConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
}

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "auditpipe")
	v.SetDefault("logger.log_file", "auditpipe.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Storage --
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.templates_dir", "templates")
	v.SetDefault("storage.knowledge_base_file", "data/findings_dictionary.json")

	// -- Analyzer --
	v.SetDefault("analyzer.endpoint", "http://localhost:9090/analyze")
	v.SetDefault("analyzer.timeout", "5m")
	v.SetDefault("analyzer.default_plan", "basic")

	// -- Generator --
	v.SetDefault("generator.enabled", true)
	v.SetDefault("generator.model", "gemini-2.5-pro")
	v.SetDefault("generator.timeout", "2m")
	v.SetDefault("generator.temperature", 0.2)

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the config file.
	_ = v.BindEnv("generator.api_key", "AUDITPIPE_GENERATOR_API_KEY")
	_ = v.BindEnv("database.url", "AUDITPIPE_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"postgres\", got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for the postgres backend (AUDITPIPE_DATABASE_URL)")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if c.Analyzer.Timeout <= 0 {
		return fmt.Errorf("analyzer.timeout must be a positive duration")
	}
	if c.Generator.Enabled && c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be a positive duration")
	}
	return nil
}
