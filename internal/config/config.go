package config

import (
	"time"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
	Lookup     LookupConfig     `mapstructure:"lookup"`
	Filtering  FilteringConfig  `mapstructure:"filtering"`
	Settings   SettingsConfig   `mapstructure:"settings"`
	PayloadLog PayloadLogConfig `mapstructure:"payload_log"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type JournalConfig struct {
	Dir          string        `mapstructure:"dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type DeliveryConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

type LookupConfig struct {
	EDSMBaseURL    string               `mapstructure:"edsm_base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	Retry          RetryConfig          `mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Cache          CacheConfig          `mapstructure:"cache"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Backend    string      `mapstructure:"backend"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type FilteringConfig struct {
	Rules    []FilterRule   `mapstructure:"rules"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

type FilterRule struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

type FallbackConfig struct {
	OnError string `mapstructure:"on_error"` // "allow" or "deny" (default: "allow")
}

type SettingsConfig struct {
	File string `mapstructure:"file"`
}

type PayloadLogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
