package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/oauthfilter/pkg/debug"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative"))
	}

	switch c.Storage.Type {
	case "memory":
		if c.Storage.Memory.Watch && c.Storage.Memory.Fixtures == "" {
			errs = append(errs, fmt.Errorf("storage.memory.watch requires storage.memory.fixtures"))
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("storage.redis.addr is required when storage.type is \"redis\""))
		}
		if c.Storage.Redis.DB < 0 {
			errs = append(errs, fmt.Errorf("storage.redis.db must not be negative, got %d", c.Storage.Redis.DB))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\" or \"redis\", got %q", c.Storage.Type))
	}

	if !c.OAuth.OAuth1Enabled && !c.OAuth.OAuth2Enabled {
		errs = append(errs, fmt.Errorf("at least one of oauth.oauth1_enabled and oauth.oauth2_enabled must be true"))
	}
	if c.OAuth.LookupTimeout < 0 {
		errs = append(errs, fmt.Errorf("oauth.lookup_timeout must not be negative"))
	}
	if strings.ContainsAny(c.OAuth.Realm, "\"\\\r\n") {
		errs = append(errs, fmt.Errorf("oauth.realm must not contain quotes, backslashes or line breaks"))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}
	if lvl := strings.ToUpper(strings.TrimSpace(c.Logging.Level)); lvl != "" && lvl != "INFO" && debug.ParseLevel(lvl) == debug.ParseLevel("INFO") {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", c.Logging.Level))
	}

	return errors.Join(errs...)
}
