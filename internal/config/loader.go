package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"stellarelay/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8420)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")

	viper.SetDefault("journal.poll_interval", "1s")

	viper.SetDefault("delivery.timeout", constants.DefaultHTTPTimeout)
	viper.SetDefault("delivery.drain_timeout", constants.DeliveryDrainTimeout)

	viper.SetDefault("lookup.edsm_base_url", constants.DefaultEDSMBaseURL)
	viper.SetDefault("lookup.timeout", constants.DefaultHTTPTimeout)
	viper.SetDefault("lookup.retry.max_attempts", 3)
	viper.SetDefault("lookup.retry.initial_interval", "500ms")
	viper.SetDefault("lookup.retry.max_interval", "5s")
	viper.SetDefault("lookup.retry.multiplier", 2.0)
	viper.SetDefault("lookup.retry.max_elapsed_time", "30s")
	viper.SetDefault("lookup.cache.backend", CacheBackendMemory)
	viper.SetDefault("lookup.cache.ttl_seconds", constants.DefaultLookupTTLSeconds)

	viper.SetDefault("filtering.fallback.on_error", constants.FallbackAllow)

	viper.SetDefault("settings.file", "settings.yaml")

	viper.SetDefault("payload_log.file", "payloads.log")
	viper.SetDefault("payload_log.max_size_mb", constants.DefaultPayloadLogMaxSizeMB)
	viper.SetDefault("payload_log.max_backups", constants.DefaultPayloadLogMaxBackups)

	viper.SetDefault("logging.level", "info")
}

func bindEnvVariables() {
	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("journal.dir", "JOURNAL_DIR")

	viper.BindEnv("lookup.edsm_base_url", "LOOKUP_EDSM_BASE_URL")
	viper.BindEnv("lookup.cache.backend", "LOOKUP_CACHE_BACKEND")
	viper.BindEnv("lookup.cache.redis.host", "LOOKUP_CACHE_REDIS_HOST")
	viper.BindEnv("lookup.cache.redis.port", "LOOKUP_CACHE_REDIS_PORT")
	viper.BindEnv("lookup.cache.redis.password", "LOOKUP_CACHE_REDIS_PASSWORD")
	viper.BindEnv("lookup.cache.redis.db", "LOOKUP_CACHE_REDIS_DB")

	viper.BindEnv("settings.file", "SETTINGS_FILE")
	viper.BindEnv("payload_log.file", "PAYLOAD_LOG_FILE")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.file", "LOGGING_FILE")
}
