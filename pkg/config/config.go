package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultBackendURL is the default DevPath AI backend address.
	DefaultBackendURL = "http://localhost:8000"

	// DefaultBackendTimeout bounds a single backend request. Full
	// profile analysis routinely takes tens of seconds.
	DefaultBackendTimeout = 60 * time.Second

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultCallbackListen is the loopback address the OAuth callback
	// listener binds to. It must match the redirect URL registered with
	// the GitHub OAuth app.
	DefaultCallbackListen = "127.0.0.1:8123"

	// DefaultDatabaseDriver is the state database driver.
	DefaultDatabaseDriver = "sqlite"

	// envPrefix is the prefix for environment variable overrides, e.g.
	// DEVPATH_BACKEND_URL or DEVPATH_GLOBAL_LOG_LEVEL.
	envPrefix = "DEVPATH"
)

// Config is the root configuration for the devpath client.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Backend  BackendConfig  `yaml:"backend" mapstructure:"backend"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
}

// BackendConfig contains DevPath AI backend connection settings.
type BackendConfig struct {
	URL       string          `yaml:"url" mapstructure:"url"`
	Timeout   string          `yaml:"timeout,omitempty" mapstructure:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures the client-side request limiter.
// A zero requests-per-minute value disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	GitHub GitHubAuthConfig `yaml:"github,omitempty" mapstructure:"github"`
}

// GitHubAuthConfig configures the GitHub OAuth flow. An empty ClientID
// disables the browser flow entirely; login then requires a manually
// entered token.
type GitHubAuthConfig struct {
	ClientID       string `yaml:"client_id,omitempty" mapstructure:"client_id"`
	CallbackListen string `yaml:"callback_listen,omitempty" mapstructure:"callback_listen"`
}

// DatabaseConfig contains state database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// Load reads configuration from the given files (merged in order, later
// files win) and applies DEVPATH_* environment variable overrides. All
// paths may be empty; the result is then defaults plus env overrides.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register keys so AutomaticEnv can see them even when no config
	// file mentions them.
	for _, key := range settingKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %q: %w", key, err)
		}
	}

	for _, path := range paths {
		if path == "" {
			continue
		}

		v.SetConfigFile(path)

		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config

	// Decode through mapstructure directly; viper's own Unmarshal uses
	// a forked mapstructure whose options are not interchangeable.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// settingKeys lists every known configuration key for env binding.
func settingKeys() []string {
	return []string{
		"global.log_level",
		"global.data_dir",
		"backend.url",
		"backend.timeout",
		"backend.rate_limit.requests_per_minute",
		"auth.github.client_id",
		"auth.github.callback_listen",
		"database.driver",
		"database.sqlite.path",
		"database.postgres.host",
		"database.postgres.port",
		"database.postgres.user",
		"database.postgres.password",
		"database.postgres.database",
		"database.postgres.ssl_mode",
	}
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Global.DataDir == "" {
		c.Global.DataDir = defaultDataDir()
	}

	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}

	if c.Backend.Timeout == "" {
		c.Backend.Timeout = DefaultBackendTimeout.String()
	}

	if c.Auth.GitHub.CallbackListen == "" {
		c.Auth.GitHub.CallbackListen = DefaultCallbackListen
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}

	if c.Database.Driver == "sqlite" && c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = filepath.Join(c.Global.DataDir, "state.db")
	}

	if c.Database.Driver == "postgres" && c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
}

// defaultDataDir resolves the per-user state directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devpath"
	}

	return filepath.Join(home, ".devpath")
}

// BackendTimeout returns the parsed request timeout.
func (c *Config) BackendTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parsing backend timeout %q: %w", c.Backend.Timeout, err)
	}

	return d, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}

	if !strings.HasPrefix(c.Backend.URL, "http://") &&
		!strings.HasPrefix(c.Backend.URL, "https://") {
		return fmt.Errorf("backend url %q must start with http:// or https://", c.Backend.URL)
	}

	if _, err := c.BackendTimeout(); err != nil {
		return err
	}

	if c.Backend.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("backend rate limit must not be negative")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}

		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	return nil
}
