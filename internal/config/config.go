// Package config provides configuration management for the machinery pricer.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Estimator EstimatorConfig `mapstructure:"estimator" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Import    ImportConfig    `mapstructure:"import" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                   int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	MaxUploadMB            int `mapstructure:"max_upload_mb" validate:"required,gt=0"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// EstimatorConfig tunes the price estimator
type EstimatorConfig struct {
	HistoricalCap     int                      `mapstructure:"historical_cap" validate:"required,gt=0"`
	LiveCap           int                      `mapstructure:"live_cap" validate:"required,gt=0"`
	HighConfidenceMin int                      `mapstructure:"high_confidence_min" validate:"required,gt=0"`
	LiveMediumMin     int                      `mapstructure:"live_medium_min" validate:"required,gt=0"`
	UnknownRecency    string                   `mapstructure:"unknown_recency" validate:"required,recencypolicy"`
	UseCases          map[string]UseCaseConfig `mapstructure:"use_cases" validate:"required,min=1,dive,keys,usecase,endkeys"`
}

// UseCaseConfig holds the per use case blend ratios, tolerances and
// historical sources. A zero tolerance disables that filter.
type UseCaseConfig struct {
	HistoricalWeight  float64  `mapstructure:"historical_weight" validate:"gte=0,lte=1"`
	LiveWeight        float64  `mapstructure:"live_weight" validate:"gte=0,lte=1"`
	YearTolerance     int      `mapstructure:"year_tolerance" validate:"gte=0"`
	HoursTolerance    int      `mapstructure:"hours_tolerance" validate:"gte=0"`
	HistoricalSources []string `mapstructure:"historical_sources" validate:"dive,oneof=auction pvp"`
}

// CacheConfig represents estimate cache configuration
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,cachebackend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	MaxSize       int    `mapstructure:"max_size" validate:"required,gt=0"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// ImportConfig represents historical spreadsheet import configuration
type ImportConfig struct {
	BatchSize     int     `mapstructure:"batch_size" validate:"required,gt=0"`
	DefaultSource string  `mapstructure:"default_source" validate:"required,oneof=auction pvp"`
	Sheet         string  `mapstructure:"sheet"`
	InboxDir      string  `mapstructure:"inbox_dir"`
	InboxSchedule string  `mapstructure:"inbox_schedule"`
	DownloadRate  float64 `mapstructure:"download_rate" validate:"gte=0"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// TracingConfig represents AWS X-Ray configuration
type TracingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DaemonAddr string `mapstructure:"daemon_addr"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// CacheTTL returns the estimate cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout for API handlers
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
