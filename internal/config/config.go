package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

var validate = validator.New()

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Datasets  DatasetsConfig  `yaml:"datasets" envconfig:"DATASETS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// UploadTimeout bounds the upload+parse path, which can outlive ReadTimeout
	// for large files.
	UploadTimeout time.Duration `yaml:"upload_timeout" envconfig:"UPLOAD_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/datalens.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"true"`
}

// DatasetsConfig bounds the in-memory dataset store and the profiling engine.
type DatasetsConfig struct {
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800" validate:"gt=0"`
	MaxDatasets    int           `yaml:"max_datasets" envconfig:"MAX_DATASETS" default:"16" validate:"gt=0"`
	TTL            time.Duration `yaml:"ttl" envconfig:"TTL" default:"2h"`
	SampleRows     int           `yaml:"sample_rows" envconfig:"SAMPLE_ROWS" default:"5" validate:"gt=0"`
	// MaxMatrixRows caps the missing-value presence matrix sent to clients.
	MaxMatrixRows int `yaml:"max_matrix_rows" envconfig:"MAX_MATRIX_ROWS" default:"500"`
	MaxBins       int `yaml:"max_bins" envconfig:"MAX_BINS" default:"200"`
	MaxPageSize   int `yaml:"max_page_size" envconfig:"MAX_PAGE_SIZE" default:"1000"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and an optional config file.
// Environment variables (prefix DATALENS) take precedence over file values.
// Because envconfig fills struct-tag defaults, a file value only wins where
// the field has no default and no env override; see merge.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DATALENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configFilePath resolves the config file location. DATALENS_CONFIG overrides
// the default datalens.yaml next to the working directory.
func configFilePath() string {
	if path := os.Getenv("DATALENS_CONFIG"); path != "" {
		return path
	}
	return "datalens.yaml"
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// merge overlays env config on top of file config (env takes precedence,
// zero values fall back to the file). Fields with envconfig defaults arrive
// here already non-zero, so for them the file can never win; only the
// listed fields participate in the fallback at all.
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Server.ReadTimeout == 0 {
		envCfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout == 0 {
		envCfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if envCfg.Server.UploadTimeout == 0 {
		envCfg.Server.UploadTimeout = fileCfg.Server.UploadTimeout
	}
	if envCfg.Datasets.MaxUploadBytes == 0 {
		envCfg.Datasets.MaxUploadBytes = fileCfg.Datasets.MaxUploadBytes
	}
	if envCfg.Datasets.MaxDatasets == 0 {
		envCfg.Datasets.MaxDatasets = fileCfg.Datasets.MaxDatasets
	}
	if envCfg.Datasets.TTL == 0 {
		envCfg.Datasets.TTL = fileCfg.Datasets.TTL
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Logging.FilePath == "" {
		envCfg.Logging.FilePath = fileCfg.Logging.FilePath
	}

	return envCfg
}

// validate checks configuration invariants that would otherwise surface as
// confusing runtime failures. Range checks live in struct tags; cross-field
// rules are checked by hand.
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check (value %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %f", c.Security.RateLimit.RPS)
	}
	return nil
}

// EnsureLogDir creates the directory for the configured log file.
func (c *Config) EnsureLogDir() error {
	if c.Logging.Output == "console" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Logging.FilePath), 0755)
}
