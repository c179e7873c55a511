// Package config provides configuration management for Stackyard.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with SY_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./configs/config.yaml, ~/.stackyard/config.yaml, /etc/stackyard/config.yaml)
//  3. .env files
//  4. Environment variables (SY_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Main compose file: %s\n", cfg.Compose.MainPath)
//
// # Environment Variables
//
// Environment variables override all other configuration sources.
// Use SY_ prefix and underscores for nested keys:
//   - SY_SERVER_PORT=8090
//   - SY_COUCHDB_URL=http://localhost:5984
//   - SY_COMPOSE_SITES_DIR=/srv/sites
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for Stackyard.
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// CouchDB contains database connection settings
	CouchDB CouchDBConfig `mapstructure:"couchdb"`

	// Compose contains materialized artifact paths and routing conventions
	Compose ComposeConfig `mapstructure:"compose"`

	// Runtime contains Docker runtime settings for stack restarts
	Runtime RuntimeConfig `mapstructure:"runtime"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging"`

	// Security contains security and rate limiting settings
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address
	Host string `mapstructure:"host"`

	// Port is the server listen port
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Debug enables debug logging
	Debug bool `mapstructure:"debug"`
}

// CouchDBConfig contains CouchDB connection settings.
type CouchDBConfig struct {
	// URL is the CouchDB server URL (e.g., http://localhost:5984)
	URL string `mapstructure:"url"`

	// Database is the database name to use
	Database string `mapstructure:"database"`

	// Username for CouchDB authentication
	Username string `mapstructure:"username"`

	// Password for CouchDB authentication
	Password string `mapstructure:"password"`

	// Timeout in seconds for database operations
	Timeout int `mapstructure:"timeout"`
}

// ComposeConfig contains materialized artifact paths and the routing
// conventions baked into generated directives.
type ComposeConfig struct {
	// MainPath is the materialized compose file for the main stack
	MainPath string `mapstructure:"main_path"`

	// SitesDir is the directory holding per-site compose files
	// ({SitesDir}/{site-id}/docker-compose.yml)
	SitesDir string `mapstructure:"sites_dir"`

	// HTTPEntrypoint is the edge router's plain-HTTP entrypoint name
	HTTPEntrypoint string `mapstructure:"http_entrypoint"`

	// TLSEntrypoint is the edge router's TLS entrypoint name
	TLSEntrypoint string `mapstructure:"tls_entrypoint"`

	// DefaultCertResolver is used when an intent enables TLS without
	// naming a resolver
	DefaultCertResolver string `mapstructure:"default_cert_resolver"`
}

// RuntimeConfig contains Docker runtime settings.
type RuntimeConfig struct {
	// DockerSocket is the Docker daemon address; empty means environment
	// defaults (DOCKER_HOST or the local socket)
	DockerSocket string `mapstructure:"docker_socket"`

	// RestartTimeout bounds one stack restart end to end
	RestartTimeout time.Duration `mapstructure:"restart_timeout"`

	// StopTimeout is the per-container stop grace period during restart
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format"`

	// Output is the log output destination (stdout, file)
	Output string `mapstructure:"output"`
}

// SecurityConfig contains security and rate limiting settings.
type SecurityConfig struct {
	// RateLimit is the maximum requests per second per client
	RateLimit int `mapstructure:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// APIKeys are valid API keys for authentication (optional; empty
	// disables the check)
	APIKeys []string `mapstructure:"api_keys"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SY_ prefix)
//  2. .env file
//  3. Configuration file
//  4. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.stackyard")
		v.AddConfigPath("/etc/stackyard")
	}

	if err := v.ReadInConfig(); err != nil {
		// If config file was explicitly specified, fail on any error other
		// than "file not found"; for auto-discovery, only fail on errors
		// other than ConfigFileNotFoundError
		if cfgFile != "" {
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("SY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug", false)

	v.SetDefault("couchdb.url", "http://localhost:5984")
	v.SetDefault("couchdb.database", "stackyard")
	v.SetDefault("couchdb.username", "admin")
	v.SetDefault("couchdb.password", "password")
	v.SetDefault("couchdb.timeout", 30)

	v.SetDefault("compose.main_path", "/srv/stackyard/docker-compose.yml")
	v.SetDefault("compose.sites_dir", "/srv/stackyard/sites")
	v.SetDefault("compose.http_entrypoint", "web")
	v.SetDefault("compose.tls_entrypoint", "websecure")
	v.SetDefault("compose.default_cert_resolver", "letsencrypt")

	v.SetDefault("runtime.docker_socket", "")
	v.SetDefault("runtime.restart_timeout", "2m")
	v.SetDefault("runtime.stop_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("security.rate_limit", 100)
	v.SetDefault("security.allowed_origins", []string{"*"})
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.CouchDB.URL == "" {
		return fmt.Errorf("couchdb url is required")
	}

	if cfg.CouchDB.Database == "" {
		return fmt.Errorf("couchdb database is required")
	}

	if cfg.Compose.MainPath == "" {
		return fmt.Errorf("compose main_path is required")
	}

	if cfg.Compose.SitesDir == "" {
		return fmt.Errorf("compose sites_dir is required")
	}

	if cfg.Runtime.RestartTimeout <= 0 {
		return fmt.Errorf("runtime restart_timeout must be positive")
	}

	return nil
}

// Get returns the last configuration loaded by Load.
func Get() *Config {
	return cfg
}

// ArtifactPath returns the on-disk compose file path for a target string
// ("main" or "site:<id>"). Site paths live under SitesDir keyed by site ID.
func (c *ComposeConfig) ArtifactPath(target string) string {
	if target == "main" {
		return c.MainPath
	}
	id := strings.TrimPrefix(target, "site:")
	return fmt.Sprintf("%s/%s/docker-compose.yml", strings.TrimRight(c.SitesDir, "/"), id)
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
