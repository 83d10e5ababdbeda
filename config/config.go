// Package config loads filedexd's settings from a config file,
// environment variables, and CLI flags, in that order of increasing
// precedence, via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config stores filedexd's full runtime configuration. Values are read
// by viper from a config file (if present), overridden by environment
// variables, and finally overridden by CLI flags in main.go.
type Config struct {
	RootDir          string        `mapstructure:"rootDir"`
	Excludes         []string      `mapstructure:"excludes"`
	MaxFileSizeBytes int64         `mapstructure:"maxFileSizeBytes"`
	MaxResults       int           `mapstructure:"maxResults"`
	LogLevel         string        `mapstructure:"logLevel"`
	LogFile          string        `mapstructure:"logFile"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
	ReconcileSeconds int           `mapstructure:"reconcileSeconds"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads configuration from configPath (if non-empty), environment
// variables prefixed FILEDEX_, and, when configPath is empty, the current
// working directory's filedex.yaml if present, applying defaults for anything
// left unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("filedex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("rootDir", ".")
	v.SetDefault("maxFileSizeBytes", 1024*1024)
	v.SetDefault("maxResults", 50)
	v.SetDefault("logLevel", "info")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("reconcileSeconds", 300)

	v.SetEnvPrefix("FILEDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}
