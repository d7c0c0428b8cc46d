// Package config provides configuration management for the machinery pricer.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("usecase", validateUseCase)
	v.RegisterValidation("recencypolicy", validateRecencyPolicy)
	v.RegisterValidation("cachebackend", validateCacheBackend)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateUseCase(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "auction", "pvp", "repuestos":
		return true
	default:
		return false
	}
}

func validateRecencyPolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "newest", "median":
		return true
	default:
		return false
	}
}

func validateCacheBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "memory", "redis", "none":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	for name, uc := range cfg.Estimator.UseCases {
		if math.Abs(uc.HistoricalWeight+uc.LiveWeight-1) > 1e-9 {
			return fmt.Errorf("use case %s: historical_weight and live_weight must sum to 1, got %.2f",
				name, uc.HistoricalWeight+uc.LiveWeight)
		}
	}

	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires redis_addr")
	}

	if cfg.Import.InboxDir != "" && strings.TrimSpace(cfg.Import.InboxSchedule) == "" {
		return fmt.Errorf("import inbox_dir requires inbox_schedule")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.DaemonAddr == "" {
		return fmt.Errorf("tracing requires daemon_addr")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "usecase":
			fmt.Fprintf(&b, "- Use case '%v' must be one of: auction, pvp, repuestos\n", value)
		case "recencypolicy":
			fmt.Fprintf(&b, "- Field '%s' must be one of: newest, median\n", field)
		case "cachebackend":
			fmt.Fprintf(&b, "- Field '%s' must be one of: memory, redis, none\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
