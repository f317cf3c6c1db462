package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Supported source backends.
const (
	BackendLocal  = "local"
	BackendGitHub = "github"
	BackendDrive  = "drive"
	BackendGCS    = "gcs"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
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
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourcesConfig describes where the loss extracts, net-sales sheets and the
// product catalog live. Directory values are folder ids for the drive backend
// and object prefixes for gcs.
type SourcesConfig struct {
	Backend         string        `yaml:"backend" envconfig:"BACKEND"`
	Token           string        `yaml:"token" envconfig:"TOKEN"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Root            string        `yaml:"root" envconfig:"ROOT"`
	Ref             string        `yaml:"ref" envconfig:"REF"`
	LossDir         string        `yaml:"loss_dir" envconfig:"LOSS_DIR"`
	NetSalesDir     string        `yaml:"net_sales_dir" envconfig:"NET_SALES_DIR"`
	CatalogDir      string        `yaml:"catalog_dir" envconfig:"CATALOG_DIR"`
	TablesFile      string        `yaml:"tables_file" envconfig:"TABLES_FILE"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
}

// NeedsToken reports whether the configured backend authenticates with a token.
func (s SourcesConfig) NeedsToken() bool {
	return s.Backend == BackendGitHub
}

// NeedsCredentials reports whether the backend authenticates with a service account file.
func (s SourcesConfig) NeedsCredentials() bool {
	return s.Backend == BackendDrive
}

// CacheConfig controls in-process memoization and the optional Redis tier.
type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES"`
	RedisAddr  string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisDB    int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	RedisTTL   time.Duration `yaml:"redis_ttl" envconfig:"REDIS_TTL"`
}

// TelemetryConfig toggles metrics and tracing exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load builds the configuration from defaults, then the optional YAML file,
// then VP_* environment variables (highest priority).
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	// Env vars without a value leave the field untouched, so file values survive.
	if err := envconfig.Process("VP", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values on cfg
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

	c.Sources.Backend = strings.ToLower(strings.TrimSpace(c.Sources.Backend))
	switch c.Sources.Backend {
	case BackendLocal, BackendGitHub, BackendDrive, BackendGCS:
	default:
		return fmt.Errorf("unknown source backend: %q", c.Sources.Backend)
	}

	if c.Sources.Backend != BackendLocal && c.Sources.Root == "" && c.Sources.Backend != BackendDrive {
		return fmt.Errorf("sources root is required for backend %s", c.Sources.Backend)
	}

	if c.Sources.LossDir == "" {
		return fmt.Errorf("sources loss_dir must be set")
	}

	if c.Sources.RefreshInterval < 0 {
		return fmt.Errorf("sources refresh interval must not be negative")
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 256
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	// JSON logs only
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// CheckCredentials fails when the selected backend needs a secret that is not set.
// Callers treat this as fatal at startup.
func (c *Config) CheckCredentials() error {
	if c.Sources.NeedsToken() && strings.TrimSpace(c.Sources.Token) == "" {
		return fmt.Errorf("VP_SOURCES_TOKEN is required for the %s backend", c.Sources.Backend)
	}
	if c.Sources.NeedsCredentials() && strings.TrimSpace(c.Sources.CredentialsFile) == "" {
		return fmt.Errorf("VP_SOURCES_CREDENTIALS_FILE is required for the %s backend", c.Sources.Backend)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv("VP_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Sources: SourcesConfig{
			Backend:         BackendLocal,
			Root:            "data",
			Ref:             "main",
			LossDir:         "venta_perdida",
			NetSalesDir:     "venta_neta",
			CatalogDir:      "maestro",
			TablesFile:      "configs/tables.yaml",
			RefreshInterval: 5 * time.Minute,
			FetchTimeout:    60 * time.Second,
		},
		Cache: CacheConfig{
			MaxEntries: 256,
			RedisTTL:   30 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "ventaperdida",
			MetricsEnabled: true,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ExportsDir: "data/exports",
			LogsDir:    "logs",
		},
	}
}
