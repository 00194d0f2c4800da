// Package config loads application configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backend drivers.
const (
	BackendSQLite     = "sqlite"
	BackendPocketBase = "pocketbase"
)

// DefaultUserAgent is sent on outbound metadata fetches. Many sites refuse
// requests that don't look like a desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Backend  BackendConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Metadata MetadataConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // auth key, sqlite database and metadata cache live here
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig selects and configures the record store.
type BackendConfig struct {
	Driver        string        // sqlite or pocketbase
	PocketBaseURL string        // base URL of the PocketBase instance
	Timeout       time.Duration // upper bound on a single backend call
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	TokenDuration time.Duration // session token and cookie lifetime
	RateLimit     int           // login/signup attempts per minute per client IP
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	AllowedOrigin string // a single origin, or "*"
}

// MetadataConfig holds OpenGraph fetch configuration.
type MetadataConfig struct {
	FetchTimeout time.Duration
	UserAgent    string
	CacheTTL     time.Duration // 0 disables the cache
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// SQLitePath returns the path of the embedded database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.App.DataPath, "linknlink.db")
}

// CachePath returns the directory of the metadata cache.
func (c *Config) CachePath() string {
	return filepath.Join(c.App.DataPath, "cache", "opengraph")
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the auth key, database and cache")
	port := fs.String("port", "", "Server port (default: 8080)")
	backend := fs.String("backend", "", "Record store: sqlite or pocketbase (default: sqlite)")
	pocketBaseURL := fs.String("pocketbase-url", "", "PocketBase base URL (default: http://localhost:8090)")
	allowedOrigin := fs.String("allowed-origin", "", "CORS origin allowed besides extensions and same-origin (default: *)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*port, "SERVER_PORT", "8080"),
		},
		Backend: BackendConfig{
			Driver:        strings.ToLower(getConfigValue(*backend, "BACKEND", BackendSQLite)),
			PocketBaseURL: strings.TrimRight(getConfigValue(*pocketBaseURL, "POCKETBASE_URL", "http://localhost:8090"), "/"),
		},
		Auth: AuthConfig{
			RateLimit: getIntConfigValue("", "AUTH_RATE_LIMIT", 20),
		},
		CORS: CORSConfig{
			AllowedOrigin: getConfigValue(*allowedOrigin, "ALLOWED_ORIGIN", "*"),
		},
		Metadata: MetadataConfig{
			UserAgent: getConfigValue("", "METADATA_USER_AGENT", DefaultUserAgent),
		},
	}

	durations := []struct {
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"BACKEND_TIMEOUT", "10s", &cfg.Backend.Timeout},
		{"TOKEN_DURATION", "168h", &cfg.Auth.TokenDuration},
		{"METADATA_TIMEOUT", "5s", &cfg.Metadata.FetchTimeout},
		{"METADATA_CACHE_TTL", "2h", &cfg.Metadata.CacheTTL},
	}
	for _, d := range durations {
		raw := getConfigValue("", d.envKey, d.def)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = v
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Backend.Driver {
	case BackendSQLite:
		if c.App.DataPath == "" {
			return errors.New("data path cannot be empty")
		}
	case BackendPocketBase:
		u, err := url.Parse(c.Backend.PocketBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid POCKETBASE_URL: %q", c.Backend.PocketBaseURL)
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be sqlite or pocketbase)", c.Backend.Driver)
	}

	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.Metadata.FetchTimeout <= 0 {
		return errors.New("METADATA_TIMEOUT must be positive")
	}
	if c.Metadata.CacheTTL < 0 {
		return errors.New("METADATA_CACHE_TTL cannot be negative")
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.New("TOKEN_DURATION must be positive")
	}
	if c.Auth.RateLimit <= 0 {
		return errors.New("AUTH_RATE_LIMIT must be positive")
	}
	if c.CORS.AllowedOrigin == "" {
		return errors.New("ALLOWED_ORIGIN cannot be empty")
	}

	return nil
}

// expandDataPath expands ~ and makes the data path absolute.
// Defaults to ~/LinknLink/data.
func (c *Config) expandDataPath() error {
	path := c.App.DataPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.App.DataPath = filepath.Join(home, "LinknLink", "data")
		return nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	c.App.DataPath = filepath.Clean(abs)
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return defaultValue
	}
	return n
}

// loadEnvFile loads KEY=value lines from path into the environment without
// overriding variables that are already set.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the -env-file flag
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
