// Package config loads process configuration from file, environment
// and defaults, in that order of precedence reversed: defaults sit at
// the bottom, a config.yaml may override them, HL7FORGE_ environment
// variables win.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Generation  GenerationConfig `mapstructure:"generation"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// DatabaseConfig points at the optional sqlite definition catalog. An
// empty path means the embedded definition pack serves alone.
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	RedisTTL   time.Duration `mapstructure:"redis_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	UseRedis   bool          `mapstructure:"use_redis"`
}

// GenerationConfig carries the engine's default probabilities; callers
// may still override both per request.
type GenerationConfig struct {
	OptionalSegmentProbability float64 `mapstructure:"optional_segment_probability"`
	OptionalFieldProbability   float64 `mapstructure:"optional_field_probability"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and holds the configuration.
type Manager struct {
	config *Config
}

func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/hl7-message-forge/")

	viper.SetEnvPrefix("HL7FORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults and environment carry the load.
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 50.0)
	viper.SetDefault("server.rate_burst", 100)

	viper.SetDefault("database.path", "")
	viper.SetDefault("database.migrations_path", "migrations")

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.redis_ttl", "24h")
	viper.SetDefault("cache.max_entries", 256)
	viper.SetDefault("cache.use_redis", false)

	viper.SetDefault("generation.optional_segment_probability", 0.6)
	viper.SetDefault("generation.optional_field_probability", 0.3)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

func (m *Manager) GetServerConfig() *ServerConfig {
	return &m.config.Server
}

func (m *Manager) GetCacheConfig() *CacheConfig {
	return &m.config.Cache
}

func (m *Manager) GetGenerationConfig() *GenerationConfig {
	return &m.config.Generation
}

// Reload re-reads all configuration sources.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate rejects configurations the process cannot run with.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if p := config.Generation.OptionalSegmentProbability; p < 0 || p > 1 {
		return fmt.Errorf("optional segment probability out of range: %f", p)
	}
	if p := config.Generation.OptionalFieldProbability; p < 0 || p > 1 {
		return fmt.Errorf("optional field probability out of range: %f", p)
	}

	if config.Cache.UseRedis && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when redis caching is enabled")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction reports whether the process runs in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
