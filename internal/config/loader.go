// Package config provides configuration management for the machinery pricer.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment overrides (MACHINERY_PRICER_DATABASE_HOST, ...)
	EnvPrefix = "MACHINERY_PRICER"

	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "machinery-pricer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "machinery")
	v.SetDefault("database.user", "machinery")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.request_timeout_seconds", 10)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("estimator.historical_cap", 20)
	v.SetDefault("estimator.live_cap", 10)
	v.SetDefault("estimator.high_confidence_min", 5)
	v.SetDefault("estimator.live_medium_min", 3)
	v.SetDefault("estimator.unknown_recency", "median")
	v.SetDefault("estimator.use_cases", map[string]interface{}{
		"auction": map[string]interface{}{
			"historical_weight":  0.7,
			"live_weight":        0.3,
			"year_tolerance":     3,
			"hours_tolerance":    3000,
			"historical_sources": []string{"auction"},
		},
		"pvp": map[string]interface{}{
			"historical_weight":  0.6,
			"live_weight":        0.4,
			"year_tolerance":     2,
			"hours_tolerance":    2000,
			"historical_sources": []string{"pvp"},
		},
		"repuestos": map[string]interface{}{
			"historical_weight":  0.6,
			"live_weight":        0.4,
			"year_tolerance":     5,
			"hours_tolerance":    0,
			"historical_sources": []string{},
		},
	})

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.key_prefix", "pricer:estimate:")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("import.batch_size", 500)
	v.SetDefault("import.default_source", "auction")
	v.SetDefault("import.sheet", "")
	v.SetDefault("import.inbox_dir", "")
	v.SetDefault("import.inbox_schedule", "@every 15m")
	v.SetDefault("import.download_rate", 2.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
}
