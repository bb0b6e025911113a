package config

import (
	"fmt"

	"stellarelay/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateJournal(cfg.Journal); err != nil {
		errors = append(errors, err)
	}

	if err := validateLookup(cfg.Lookup); err != nil {
		errors = append(errors, err)
	}

	if err := validateFiltering(cfg.Filtering); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateJournal(cfg JournalConfig) error {
	if cfg.Dir == "" {
		return &ValidationError{
			Field:   "journal.dir",
			Message: "journal directory is required",
		}
	}

	if cfg.PollInterval <= 0 {
		return &ValidationError{
			Field:   "journal.poll_interval",
			Message: "poll interval must be positive",
		}
	}

	return nil
}

func validateLookup(cfg LookupConfig) error {
	if cfg.EDSMBaseURL == "" {
		return &ValidationError{
			Field:   "lookup.edsm_base_url",
			Message: "EDSM base URL is required",
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "lookup.retry.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Retry.Multiplier <= 0 {
		return &ValidationError{
			Field:   "lookup.retry.multiplier",
			Message: "multiplier must be positive",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return &ValidationError{
			Field:   "lookup.retry.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Cache.Redis.Host == "" {
			return &ValidationError{
				Field:   "lookup.cache.redis.host",
				Message: "Redis host is required for the redis cache backend",
			}
		}
		if cfg.Cache.Redis.Port < 1 || cfg.Cache.Redis.Port > 65535 {
			return &ValidationError{
				Field:   "lookup.cache.redis.port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Cache.Redis.Port),
			}
		}
	default:
		return &ValidationError{
			Field:   "lookup.cache.backend",
			Message: fmt.Sprintf("unknown cache backend: %s (supported: memory, redis)", cfg.Cache.Backend),
		}
	}

	if cfg.Cache.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "lookup.cache.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	return nil
}

func validateFiltering(cfg FilteringConfig) error {
	for i, rule := range cfg.Rules {
		if rule.Expression == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("filtering.rules[%d].expression", i),
				Message: "rule expression cannot be empty",
			}
		}
	}

	switch cfg.Fallback.OnError {
	case "", constants.FallbackAllow, constants.FallbackDeny:
	default:
		return &ValidationError{
			Field:   "filtering.fallback.on_error",
			Message: fmt.Sprintf("unknown fallback: %s (supported: allow, deny)", cfg.Fallback.OnError),
		}
	}

	return nil
}
