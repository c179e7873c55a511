package config

import (
	"os"
	"testing"
	"time"
)

// TestLoadDefaults tests that default configuration values are loaded correctly.
func TestLoadDefaults(t *testing.T) {
	// Load configuration without a config file
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// Test Server defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default server host '0.0.0.0', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Expected default server port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Expected default write timeout 30s, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Debug != false {
		t.Errorf("Expected default debug false, got %v", cfg.Server.Debug)
	}

	// Test CouchDB defaults
	if cfg.CouchDB.URL != "http://localhost:5984" {
		t.Errorf("Expected default couchdb url 'http://localhost:5984', got '%s'", cfg.CouchDB.URL)
	}
	if cfg.CouchDB.Database != "stackyard" {
		t.Errorf("Expected default database 'stackyard', got '%s'", cfg.CouchDB.Database)
	}
	if cfg.CouchDB.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.CouchDB.Timeout)
	}

	// Test Compose defaults
	if cfg.Compose.MainPath != "/srv/stackyard/docker-compose.yml" {
		t.Errorf("Expected default main_path '/srv/stackyard/docker-compose.yml', got '%s'", cfg.Compose.MainPath)
	}
	if cfg.Compose.SitesDir != "/srv/stackyard/sites" {
		t.Errorf("Expected default sites_dir '/srv/stackyard/sites', got '%s'", cfg.Compose.SitesDir)
	}
	if cfg.Compose.HTTPEntrypoint != "web" {
		t.Errorf("Expected default http_entrypoint 'web', got '%s'", cfg.Compose.HTTPEntrypoint)
	}
	if cfg.Compose.TLSEntrypoint != "websecure" {
		t.Errorf("Expected default tls_entrypoint 'websecure', got '%s'", cfg.Compose.TLSEntrypoint)
	}
	if cfg.Compose.DefaultCertResolver != "letsencrypt" {
		t.Errorf("Expected default cert resolver 'letsencrypt', got '%s'", cfg.Compose.DefaultCertResolver)
	}

	// Test Runtime defaults
	if cfg.Runtime.DockerSocket != "" {
		t.Errorf("Expected default docker socket '', got '%s'", cfg.Runtime.DockerSocket)
	}
	if cfg.Runtime.RestartTimeout != 2*time.Minute {
		t.Errorf("Expected default restart timeout 2m, got %v", cfg.Runtime.RestartTimeout)
	}
	if cfg.Runtime.StopTimeout != 10*time.Second {
		t.Errorf("Expected default stop timeout 10s, got %v", cfg.Runtime.StopTimeout)
	}

	// Test Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default logging level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default logging format 'json', got '%s'", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default logging output 'stdout', got '%s'", cfg.Logging.Output)
	}

	// Test Security defaults
	if cfg.Security.RateLimit != 100 {
		t.Errorf("Expected default rate limit 100, got %d", cfg.Security.RateLimit)
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default allowed origins ['*'], got %v", cfg.Security.AllowedOrigins)
	}
	if len(cfg.Security.APIKeys) != 0 {
		t.Errorf("Expected no default API keys, got %v", cfg.Security.APIKeys)
	}
}

// TestValidation tests the configuration validation logic.
func TestValidation(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8090},
			CouchDB: CouchDBConfig{
				URL:      "http://localhost:5984",
				Database: "stackyard",
			},
			Compose: ComposeConfig{
				MainPath: "/srv/stackyard/docker-compose.yml",
				SitesDir: "/srv/stackyard/sites",
			},
			Runtime: RuntimeConfig{RestartTimeout: 2 * time.Minute},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
		errMsg    string
	}{
		{
			name:      "valid configuration",
			mutate:    func(c *Config) {},
			expectErr: false,
		},
		{
			name:      "invalid port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			expectErr: true,
			errMsg:    "invalid server port",
		},
		{
			name:      "invalid port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			expectErr: true,
			errMsg:    "invalid server port",
		},
		{
			name:      "missing couchdb url",
			mutate:    func(c *Config) { c.CouchDB.URL = "" },
			expectErr: true,
			errMsg:    "couchdb url is required",
		},
		{
			name:      "missing couchdb database",
			mutate:    func(c *Config) { c.CouchDB.Database = "" },
			expectErr: true,
			errMsg:    "couchdb database is required",
		},
		{
			name:      "missing compose main_path",
			mutate:    func(c *Config) { c.Compose.MainPath = "" },
			expectErr: true,
			errMsg:    "compose main_path is required",
		},
		{
			name:      "missing compose sites_dir",
			mutate:    func(c *Config) { c.Compose.SitesDir = "" },
			expectErr: true,
			errMsg:    "compose sites_dir is required",
		},
		{
			name:      "non-positive restart timeout",
			mutate:    func(c *Config) { c.Runtime.RestartTimeout = 0 },
			expectErr: true,
			errMsg:    "restart_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errMsg)
				} else if !contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
			}
		})
	}
}

// TestArtifactPath tests the on-disk path mapping for targets.
func TestArtifactPath(t *testing.T) {
	compose := ComposeConfig{
		MainPath: "/srv/stackyard/docker-compose.yml",
		SitesDir: "/srv/stackyard/sites",
	}

	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{
			name:     "main target uses main path",
			target:   "main",
			expected: "/srv/stackyard/docker-compose.yml",
		},
		{
			name:     "site target lives under sites dir",
			target:   "site:42",
			expected: "/srv/stackyard/sites/42/docker-compose.yml",
		},
		{
			name:     "site id with dashes",
			target:   "site:blog-prod",
			expected: "/srv/stackyard/sites/blog-prod/docker-compose.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := compose.ArtifactPath(tt.target)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

// TestArtifactPathTrailingSlash tests that a trailing slash on sites_dir
// does not double up path separators.
func TestArtifactPathTrailingSlash(t *testing.T) {
	compose := ComposeConfig{
		MainPath: "/srv/stackyard/docker-compose.yml",
		SitesDir: "/srv/stackyard/sites/",
	}

	result := compose.ArtifactPath("site:7")
	expected := "/srv/stackyard/sites/7/docker-compose.yml"
	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

// TestEnvironmentVariableOverride tests that environment variables override config values.
func TestEnvironmentVariableOverride(t *testing.T) {
	// Save original env vars
	originalPort := os.Getenv("SY_SERVER_PORT")
	originalHost := os.Getenv("SY_SERVER_HOST")
	originalDebug := os.Getenv("SY_SERVER_DEBUG")

	// Set test env vars
	os.Setenv("SY_SERVER_PORT", "9999")
	os.Setenv("SY_SERVER_HOST", "127.0.0.1")
	os.Setenv("SY_SERVER_DEBUG", "true")

	// Cleanup after test
	defer func() {
		if originalPort != "" {
			os.Setenv("SY_SERVER_PORT", originalPort)
		} else {
			os.Unsetenv("SY_SERVER_PORT")
		}
		if originalHost != "" {
			os.Setenv("SY_SERVER_HOST", originalHost)
		} else {
			os.Unsetenv("SY_SERVER_HOST")
		}
		if originalDebug != "" {
			os.Setenv("SY_SERVER_DEBUG", originalDebug)
		} else {
			os.Unsetenv("SY_SERVER_DEBUG")
		}
	}()

	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from environment, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host '127.0.0.1' from environment, got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Debug != true {
		t.Errorf("Expected debug true from environment, got %v", cfg.Server.Debug)
	}
}

// TestGet tests the global config getter.
func TestGet(t *testing.T) {
	// Load configuration first
	_, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Get should return the loaded config
	retrieved := Get()
	if retrieved == nil {
		t.Error("Get() returned nil")
		return
	}

	if retrieved.CouchDB.Database != "stackyard" {
		t.Errorf("Expected database 'stackyard' from Get(), got '%s'", retrieved.CouchDB.Database)
	}
}

// Helper function to check if a string contains a substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && len(substr) > 0 && findSubstring(s, substr)))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
