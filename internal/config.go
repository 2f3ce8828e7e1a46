package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/geoingest/internal/database"
	"github.com/hbomb79/geoingest/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config is the struct used to contain the various user config supplied
// by file and environment. The database connection keys sit at the top level
// of the file, alongside the options which control the ingestion itself.
type Config struct {
	database.Config `yaml:",inline"`

	BaseFolder          string `json:"base_folder" yaml:"base_folder" toml:"base_folder" env:"BASE_FOLDER" validate:"required"`
	FfprobePath         string `json:"ffprobe_path" yaml:"ffprobe_path" toml:"ffprobe_path" env:"FFPROBE_PATH" env-default:"ffprobe" validate:"required"`
	ProbeTimeoutSeconds int    `json:"probe_timeout_seconds" yaml:"probe_timeout_seconds" toml:"probe_timeout_seconds" env:"PROBE_TIMEOUT_SECONDS" env-default:"30" validate:"min=0"`
	ExtractParallelism  int    `json:"extract_parallelism" yaml:"extract_parallelism" toml:"extract_parallelism" env:"EXTRACT_PARALLELISM" env-default:"1" validate:"min=1"`
	AbortOnError        bool   `json:"abort_on_error" yaml:"abort_on_error" toml:"abort_on_error" env:"ABORT_ON_ERROR"`
	LogLevel            string `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// LoadConfig reads the configuration file at the path given (JSON, YAML or TOML,
// decided by the extension) and applies any environment overrides. If the path
// is empty, the configuration is read from the environment alone.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	if configPath == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from '%s': %w", configPath, err)
	}

	return config, nil
}

// Validate expands the base folder (allowing '~') and checks
// that all required options are present and within range.
func (config *Config) Validate() error {
	expanded, err := homedir.Expand(config.BaseFolder)
	if err != nil {
		return fmt.Errorf("failed to expand base folder '%s': %w", config.BaseFolder, err)
	}
	config.BaseFolder = expanded

	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// ProbeTimeout returns the maximum duration of a single ffprobe
// invocation. Zero indicates no timeout.
func (config *Config) ProbeTimeout() time.Duration {
	return time.Duration(config.ProbeTimeoutSeconds) * time.Second
}
