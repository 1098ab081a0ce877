package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "HOLDLENS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	AI        AIConfig        `yaml:"ai" envconfig:"AI"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"FRONTEND_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// StorageConfig selects and configures the blob store holding uploaded portfolios.
type StorageConfig struct {
	Backend   string `yaml:"backend" envconfig:"BACKEND"`
	Bucket    string `yaml:"bucket" envconfig:"S3_PORTFOLIO_BUCKET"`
	Region    string `yaml:"region" envconfig:"AWS_REGION"`
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT"`
	Prefix    string `yaml:"prefix" envconfig:"PREFIX"`
	LocalRoot string `yaml:"local_root" envconfig:"LOCAL_ROOT"`

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string `yaml:"access_key_id" envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"AWS_SECRET_ACCESS_KEY"`
}

// AIConfig configures insight generation.
type AIConfig struct {
	APIKey          string        `yaml:"api_key" envconfig:"GEMINI_API_KEY"`
	Model           string        `yaml:"model" envconfig:"MODEL"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" envconfig:"MAX_OUTPUT_TOKENS"`
	MaxPromptChars  int           `yaml:"max_prompt_chars" envconfig:"MAX_PROMPT_CHARS"`
	Currency        string        `yaml:"currency" envconfig:"CURRENCY"`
}

// Enabled reports whether an API key is configured.
func (c AIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// TelemetryConfig configures OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded into the environment first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch c.Storage.Backend {
	case StorageBackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("s3 storage requires a bucket")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("s3 storage requires a region")
		}
	case StorageBackendLocal:
		if c.Storage.LocalRoot == "" {
			return fmt.Errorf("local storage requires a root directory")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}

	if c.AI.Enabled() && c.AI.Timeout <= 0 {
		return fmt.Errorf("ai timeout must be positive")
	}

	if c.AI.MaxPromptChars < 0 {
		return fmt.Errorf("ai max prompt chars must not be negative")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "file" && c.Logging.Output != "both" {
		c.Logging.Output = "console"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultAITimeout + 30*time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  DefaultAITimeout + 15*time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Storage: StorageConfig{
			Backend:   StorageBackendS3,
			Bucket:    DefaultBucket,
			Region:    DefaultRegion,
			Prefix:    DefaultKeyPrefix,
			LocalRoot: "data",
		},
		AI: AIConfig{
			Model:           DefaultAIModel,
			Timeout:         DefaultAITimeout,
			MaxOutputTokens: DefaultMaxOutputTokens,
			MaxPromptChars:  DefaultMaxPromptChars,
			Currency:        DefaultCurrency,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}
