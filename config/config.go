package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recipe-recommender/config.yaml",
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost            string        `koanf:"server_host"`
	ServerPort            string        `koanf:"server_port" validate:"required,numeric"`
	ServerReadTimeout     time.Duration `koanf:"server_read_timeout" validate:"gt=0"`
	ServerWriteTimeout    time.Duration `koanf:"server_write_timeout" validate:"gt=0"`
	ServerShutdownTimeout time.Duration `koanf:"server_shutdown_timeout" validate:"gt=0"`

	// Database configuration
	DBDriver          string        `koanf:"db_driver" validate:"required,oneof=postgres sqlite"`
	DBPath            string        `koanf:"db_path" validate:"required_if=DBDriver sqlite"`
	DBHost            string        `koanf:"db_host" validate:"required_if=DBDriver postgres"`
	DBPort            string        `koanf:"db_port" validate:"required_if=DBDriver postgres"`
	DBUser            string        `koanf:"db_user" validate:"required_if=DBDriver postgres"`
	DBPassword        string        `koanf:"db_password"`
	DBName            string        `koanf:"db_name" validate:"required_if=DBDriver postgres"`
	DBSSLMode         string        `koanf:"db_ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	DBMaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=1"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	MigrationsDir     string        `koanf:"migrations_dir"`

	// Redis configuration, used for shared rate limit counters
	RedisHost     string `koanf:"redis_host"`
	RedisPort     string `koanf:"redis_port"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	RedisURL      string `koanf:"redis_url"`

	// Rate limiting
	RateLimitEnabled  bool          `koanf:"rate_limit_enabled"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"required_if=RateLimitEnabled true,gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Logging
	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	// Object storage used by the recipe loader
	S3BucketName string `koanf:"s3_bucket_name"`
	AWSRegion    string `koanf:"aws_region"`
}

// defaultConfig returns the built-in defaults; file and environment values override them.
func defaultConfig() *Config {
	return &Config{
		ServerHost:            "0.0.0.0",
		ServerPort:            "8000",
		ServerReadTimeout:     15 * time.Second,
		ServerWriteTimeout:    30 * time.Second,
		ServerShutdownTimeout: 10 * time.Second,

		DBDriver:          DriverSQLite,
		DBPath:            "recipes.db",
		DBPort:            "5432",
		DBSSLMode:         "disable",
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    25,
		DBConnMaxLifetime: 5 * time.Minute,
		MigrationsDir:     "migrations",

		RedisPort: "6379",

		RateLimitEnabled:  false,
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,

		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// SERVER_PORT -> server_port
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Passwords may be mounted as docker secrets instead of env vars
	if cfg.DBPassword == "" {
		cfg.DBPassword = readSecret("db_password")
	}
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = readSecret("redis_password")
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// sliceConfigPaths are list settings that may arrive as comma-separated strings
var sliceConfigPaths = []string{
	"cors_allowed_origins",
}

// processSliceFields splits comma-separated string values of the list
// settings. Values that are already lists (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN returns the lib/pq connection string for the configured database
func (c *Config) PostgresDSN() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode,
	)
}

// RedisConfigured reports whether a redis endpoint has been provided
func (c *Config) RedisConfigured() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// findConfigFile returns the first config file found, or "" when there is none
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
