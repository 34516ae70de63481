package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, OAUTHFILTER_CONFIG env, ./config.yaml, /etc/oauthfilter/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. OAUTHFILTER_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/oauthfilter/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("OAUTHFILTER_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/oauthfilter/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps OAUTHFILTER_* environment variables to config
// fields. Unparseable numeric or boolean values are ignored with a warning.
func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				slog.Warn("ignoring invalid environment value", "name", name, "value", v)
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				slog.Warn("ignoring invalid environment value", "name", name, "value", v)
				return
			}
			*dst = b
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				slog.Warn("ignoring invalid environment value", "name", name, "value", v)
				return
			}
			*dst = d
		}
	}

	setInt("OAUTHFILTER_PORT", &cfg.Server.Port)

	setString("OAUTHFILTER_STORAGE", &cfg.Storage.Type)
	setString("OAUTHFILTER_FIXTURES", &cfg.Storage.Memory.Fixtures)
	setBool("OAUTHFILTER_FIXTURES_WATCH", &cfg.Storage.Memory.Watch)
	setString("OAUTHFILTER_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	setString("OAUTHFILTER_REDIS_ADDR", &cfg.Storage.Redis.Addr)
	setString("OAUTHFILTER_REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	setInt("OAUTHFILTER_REDIS_DB", &cfg.Storage.Redis.DB)

	setBool("OAUTHFILTER_OAUTH1_ENABLED", &cfg.OAuth.OAuth1Enabled)
	setBool("OAUTHFILTER_OAUTH2_ENABLED", &cfg.OAuth.OAuth2Enabled)
	setString("OAUTHFILTER_REALM", &cfg.OAuth.Realm)
	setDuration("OAUTHFILTER_LOOKUP_TIMEOUT", &cfg.OAuth.LookupTimeout)

	setBool("OAUTHFILTER_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)

	setString("OAUTHFILTER_LOG_LEVEL", &cfg.Logging.Level)
	setString("OAUTHFILTER_LOG_FORMAT", &cfg.Logging.Format)
	setString("OAUTHFILTER_DEBUG", &cfg.Logging.Debug)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// storage.redis.password_file -> storage.redis.password
	if cfg.Storage.Redis.PasswordFile != "" && cfg.Storage.Redis.Password == "" {
		val, err := readSecretFile(cfg.Storage.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("storage.redis.password_file: %w", err)
		}
		cfg.Storage.Redis.Password = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
