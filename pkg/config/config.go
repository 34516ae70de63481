// Package config provides unified configuration for the OAuth filter.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (OAUTHFILTER_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the OAuth filter.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	OAuth         OAuthConfig         `yaml:"oauth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
}

// StorageConfig selects and configures the consumer/token store.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres" or "redis", default: "memory"
	Memory   MemoryConfig   `yaml:"memory"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// MemoryConfig holds in-memory store settings.
type MemoryConfig struct {
	Fixtures string `yaml:"fixtures"` // optional YAML file with consumers and tokens
	Watch    bool   `yaml:"watch"`    // reload fixtures when the file changes
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"` // default: "localhost:6379"
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
	KeyPrefix    string `yaml:"key_prefix"` // default: "oauthfilter:"
}

// OAuthConfig controls which credential schemes are accepted.
type OAuthConfig struct {
	OAuth1Enabled bool          `yaml:"oauth1_enabled"` // default: true
	OAuth2Enabled bool          `yaml:"oauth2_enabled"` // default: true
	Realm         string        `yaml:"realm"`          // default: "oauthfilter"
	LookupTimeout time.Duration `yaml:"lookup_timeout"` // 0 disables, default: 5s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "oauthfilter:",
			},
		},
		OAuth: OAuthConfig{
			OAuth1Enabled: true,
			OAuth2Enabled: true,
			Realm:         "oauthfilter",
			LookupTimeout: 5 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
