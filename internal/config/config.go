package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. PAYOUT_LOGGING_LEVEL.
const EnvPrefix = "PAYOUT"

// ConfigFileEnv names the variable that points at a YAML config file.
const ConfigFileEnv = "PAYOUT_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
	Tracing TracingConfig `yaml:"tracing" envconfig:"TRACING"`
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stderr file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output stderr"`
}

// MetricsConfig controls the end-of-run metrics textfile.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH" validate:"required_if=Enabled true"`
}

// TracingConfig controls per-file span export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	FilePath    string  `yaml:"file_path" envconfig:"FILE_PATH"` // empty writes to stderr
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// InputConfig tunes how input files are read.
type InputConfig struct {
	// Sheet is the workbook sheet read from .xlsx inputs; empty means the first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. Failures are CONFIG errors. An empty path falls back to
// PAYOUT_CONFIG_FILE; when both are empty no file is read.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from file %s", path), err)
		}
	}

	// No default tags on the structs: envconfig leaves fields untouched when a
	// variable is unset, so file values survive.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks field constraints declared in struct tags
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stderr",
			FilePath: "logs/payout-report.log",
		},
		Metrics: MetricsConfig{
			Enabled:      false,
			TextfilePath: "metrics/payout-report.prom",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			SampleRatio: 1.0,
		},
	}
}
