// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bcgov/pay-reconciler/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PAYRECON_LOG_LEVEL.
const EnvPrefix = "PAYRECON"

// Blob providers.
const (
	BlobProviderLocal = "local"
	BlobProviderGCS   = "gcs"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Blob struct {
		Provider    string `mapstructure:"provider" yaml:"provider"`
		LocalRoot   string `mapstructure:"local_root" yaml:"local_root"`
		GCSEndpoint string `mapstructure:"gcs_endpoint" yaml:"gcs_endpoint"`
		Retry       struct {
			MaxAttempts    int `mapstructure:"max_attempts" yaml:"max_attempts"`
			InitialDelayMS int `mapstructure:"initial_delay_ms" yaml:"initial_delay_ms"`
			MaxDelayMS     int `mapstructure:"max_delay_ms" yaml:"max_delay_ms"`
		} `mapstructure:"retry" yaml:"retry"`
	} `mapstructure:"blob" yaml:"blob"`

	EFT struct {
		LocationID       string   `mapstructure:"location_id" yaml:"location_id"`
		EFTPatterns      []string `mapstructure:"eft_patterns" yaml:"eft_patterns"`
		WirePatterns     []string `mapstructure:"wire_patterns" yaml:"wire_patterns"`
		GeneratePatterns []string `mapstructure:"generate_patterns" yaml:"generate_patterns"`
		IgnorePatterns   []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
	} `mapstructure:"eft" yaml:"eft"`

	Notify struct {
		Endpoint       string   `mapstructure:"endpoint" yaml:"endpoint"`
		Recipients     []string `mapstructure:"recipients" yaml:"recipients"`
		TokenURL       string   `mapstructure:"token_url" yaml:"token_url"`
		ClientID       string   `mapstructure:"client_id" yaml:"client_id"`
		ClientSecret   string   `mapstructure:"client_secret" yaml:"-"` // Never serialize secrets
		TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"notify" yaml:"notify"`

	Server struct {
		Addr                   string `mapstructure:"addr" yaml:"addr"`
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	} `mapstructure:"server" yaml:"server"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// configFile, when set, replaces the search for config.yaml.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.pay-reconciler")
		v.AddConfigPath(".pay-reconciler")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Database defaults
	v.SetDefault("database.path", "pay-reconciler.db")

	// Blob defaults
	v.SetDefault("blob.provider", BlobProviderLocal)
	v.SetDefault("blob.local_root", "data")
	v.SetDefault("blob.gcs_endpoint", "")
	v.SetDefault("blob.retry.max_attempts", 3)
	v.SetDefault("blob.retry.initial_delay_ms", 100)
	v.SetDefault("blob.retry.max_delay_ms", 10000)

	// EFT defaults
	v.SetDefault("eft.location_id", "")
	v.SetDefault("eft.eft_patterns", []string{"MISC PAYMENT"})
	v.SetDefault("eft.wire_patterns", []string{"FUNDS TRANSFER CR TT"})
	v.SetDefault("eft.generate_patterns", []string{"FEDERAL PAYMENT CANADA"})
	v.SetDefault("eft.ignore_patterns", []string{"PAD"})

	// Notify defaults
	v.SetDefault("notify.endpoint", "")
	v.SetDefault("notify.recipients", []string{})
	v.SetDefault("notify.token_url", "")
	v.SetDefault("notify.client_id", "")
	v.SetDefault("notify.client_secret", "")
	v.SetDefault("notify.timeout_seconds", 30)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout_seconds", 30)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate blob configuration
	switch config.Blob.Provider {
	case BlobProviderLocal:
		if config.Blob.LocalRoot == "" {
			return fmt.Errorf("blob.local_root is required for the local provider")
		}
	case BlobProviderGCS:
	default:
		return fmt.Errorf("invalid blob provider: %s (must be 'local' or 'gcs')", config.Blob.Provider)
	}
	if config.Blob.Retry.MaxAttempts < 1 || config.Blob.Retry.MaxAttempts > 10 {
		return fmt.Errorf("blob.retry.max_attempts must be between 1 and 10, got: %d", config.Blob.Retry.MaxAttempts)
	}
	if config.Blob.Retry.InitialDelayMS < 0 || config.Blob.Retry.MaxDelayMS < config.Blob.Retry.InitialDelayMS {
		return fmt.Errorf("blob.retry delays must satisfy 0 <= initial_delay_ms <= max_delay_ms")
	}

	// Validate notify configuration
	if config.Notify.Endpoint != "" {
		if _, err := url.ParseRequestURI(config.Notify.Endpoint); err != nil {
			return fmt.Errorf("invalid notify.endpoint: %s", config.Notify.Endpoint)
		}
	}
	if config.Notify.TokenURL != "" && config.Notify.ClientID == "" {
		return fmt.Errorf("notify.client_id is required when notify.token_url is set")
	}
	if config.Notify.TimeoutSeconds < 1 || config.Notify.TimeoutSeconds > 300 {
		return fmt.Errorf("notify.timeout_seconds must be between 1 and 300, got: %d", config.Notify.TimeoutSeconds)
	}

	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	return nil
}

// RetryDelays returns the blob retry delays as durations.
func (c *Config) RetryDelays() (initial, max time.Duration) {
	return time.Duration(c.Blob.Retry.InitialDelayMS) * time.Millisecond,
		time.Duration(c.Blob.Retry.MaxDelayMS) * time.Millisecond
}

// ShutdownTimeout returns how long the worker waits for in-flight messages.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// NewLogger builds the application logger from the log section.
func NewLogger(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
