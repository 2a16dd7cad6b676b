// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage drivers.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Storage StorageConfig
	Metrics MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the on-disk layout.
type DataConfig struct {
	// BasePath holds the database, the token key and local uploads.
	BasePath string
}

// DatabasePath returns the SQLite file location.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "bookstore.db")
}

// PublicPath returns the root of the local upload disk.
func (d DataConfig) PublicPath() string {
	return filepath.Join(d.BasePath, "public")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenTTL of zero issues tokens that never expire.
	TokenTTL time.Duration
	// PruneSchedule is a cron spec for removing expired tokens.
	PruneSchedule string
	// RateLimit is requests per minute per client on /register and /login.
	RateLimit int
}

// StorageConfig selects where uploaded files live.
type StorageConfig struct {
	Driver         string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookstore", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the database, token key and uploads")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	trustProxy := fs.String("trust-proxy-headers", "", "Take client IPs from X-Forwarded-For/X-Real-IP (default: false)")

	// Auth flags
	tokenTTL := fs.String("token-ttl", "", "Access token lifetime, 0 for no expiry (default: 720h)")
	pruneSchedule := fs.String("token-prune-schedule", "", "Cron schedule for expired token pruning (default: @hourly)")
	rateLimit := fs.String("auth-rate-limit", "", "Register/login attempts per minute per client (default: 10)")

	// Storage flags
	storageDriver := fs.String("storage-driver", "", "Upload storage driver (local, minio)")
	minioEndpoint := fs.String("minio-endpoint", "", "MinIO endpoint host:port")
	minioAccessKey := fs.String("minio-access-key", "", "MinIO access key")
	minioSecretKey := fs.String("minio-secret-key", "", "MinIO secret key")
	minioBucket := fs.String("minio-bucket", "", "MinIO bucket (default: bookstore)")
	minioSSL := fs.String("minio-use-ssl", "", "Use TLS for MinIO (default: false)")

	metricsEnabled := fs.String("metrics", "", "Expose /metrics (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:              getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins:       splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
			TrustProxyHeaders: getBoolConfigValue(*trustProxy, "TRUST_PROXY_HEADERS", false),
		},
		Auth: AuthConfig{
			PruneSchedule: getConfigValue(*pruneSchedule, "TOKEN_PRUNE_SCHEDULE", "@hourly"),
			RateLimit:     getIntConfigValue(*rateLimit, "AUTH_RATE_LIMIT", 10),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(getConfigValue(*storageDriver, "STORAGE_DRIVER", StorageLocal)),
			MinioEndpoint:  getConfigValue(*minioEndpoint, "MINIO_ENDPOINT", ""),
			MinioAccessKey: getConfigValue(*minioAccessKey, "MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getConfigValue(*minioSecretKey, "MINIO_SECRET_KEY", ""),
			MinioBucket:    getConfigValue(*minioBucket, "MINIO_BUCKET", "bookstore"),
			MinioUseSSL:    getBoolConfigValue(*minioSSL, "MINIO_USE_SSL", false),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	durations := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"token ttl", getConfigValue(*tokenTTL, "TOKEN_TTL", "720h"), &cfg.Auth.TokenTTL},
		{"read timeout", getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"), &cfg.Server.ReadTimeout},
		{"write timeout", getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"), &cfg.Server.WriteTimeout},
		{"idle timeout", getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"), &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("invalid token ttl: %s (must not be negative)", c.Auth.TokenTTL)
	}

	if c.Auth.RateLimit <= 0 {
		return fmt.Errorf("invalid auth rate limit: %d (must be positive)", c.Auth.RateLimit)
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageMinio:
		if c.Storage.MinioEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is required for the minio storage driver")
		}
		if c.Storage.MinioAccessKey == "" || c.Storage.MinioSecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio storage driver")
		}
		if c.Storage.MinioBucket == "" {
			return errors.New("MINIO_BUCKET cannot be empty")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be local or minio)", c.Storage.Driver)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/Bookstore/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Bookstore", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
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

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
