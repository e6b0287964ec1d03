// Package config provides configuration management for launcherd.
// Values come from defaults, an optional config.yaml, and LAUNCHER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Launch    LaunchConfig    `mapstructure:"launch"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int      `mapstructure:"writeTimeout"` // in seconds
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

// DatabaseConfig selects the profile store.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // memory, sqlite, postgres
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
}

// NATSConfig holds NATS messaging configuration. An empty URL selects the in-memory bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// LaunchConfig controls how game processes are started and torn down.
type LaunchConfig struct {
	JavaPath     string        `mapstructure:"javaPath"`
	GameRoot     string        `mapstructure:"gameRoot"`
	AbortGrace   time.Duration `mapstructure:"abortGrace"`
	AbortTimeout time.Duration `mapstructure:"abortTimeout"`
	ReapInterval time.Duration `mapstructure:"reapInterval"`
	OutputEvents bool          `mapstructure:"outputEvents"`
	QueueSize    int           `mapstructure:"queueSize"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"serviceName"`
}

// RateLimitConfig limits launch commands accepted per second.
type RateLimitConfig struct {
	LaunchPerSecond float64 `mapstructure:"launchPerSecond"`
	Burst           int     `mapstructure:"burst"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func detectDefaultLogFormat() string {
	if os.Getenv("INVOCATION_ID") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("LAUNCHER_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "launcherd")
	}
	return ".launcherd"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7878)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.allowOrigins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(dataDir, "launcher.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "launcher")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "launcher")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 10)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "launcherd")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("launch.javaPath", "java")
	v.SetDefault("launch.gameRoot", filepath.Join(dataDir, "instances"))
	v.SetDefault("launch.abortGrace", 5*time.Second)
	v.SetDefault("launch.abortTimeout", 10*time.Second)
	v.SetDefault("launch.reapInterval", 5*time.Second)
	v.SetDefault("launch.outputEvents", true)
	v.SetDefault("launch.queueSize", 256)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.serviceName", "launcherd")

	v.SetDefault("ratelimit.launchPerSecond", 2.0)
	v.SetDefault("ratelimit.burst", 5)
}

// Load reads configuration from environment variables, config file, and defaults.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration, looking for config.yaml in configPath first.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("LAUNCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// camelCase keys do not map to SNAKE_CASE through AutomaticEnv.
	_ = v.BindEnv("launch.javaPath", "LAUNCHER_LAUNCH_JAVA_PATH")
	_ = v.BindEnv("launch.gameRoot", "LAUNCHER_LAUNCH_GAME_ROOT")
	_ = v.BindEnv("launch.abortGrace", "LAUNCHER_LAUNCH_ABORT_GRACE")
	_ = v.BindEnv("launch.abortTimeout", "LAUNCHER_LAUNCH_ABORT_TIMEOUT")
	_ = v.BindEnv("tracing.endpoint", "LAUNCHER_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/launcherd/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate reports every invalid field at once.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "memory":
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required for the postgres driver")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required for the postgres driver")
		}
	default:
		errs = append(errs, "database.driver must be one of: memory, sqlite, postgres")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text, console")
	}

	if cfg.Launch.JavaPath == "" {
		errs = append(errs, "launch.javaPath is required")
	}
	if cfg.Launch.AbortGrace <= 0 {
		errs = append(errs, "launch.abortGrace must be positive")
	}
	if cfg.Launch.AbortTimeout < cfg.Launch.AbortGrace {
		errs = append(errs, "launch.abortTimeout must not be shorter than launch.abortGrace")
	}
	if cfg.Launch.ReapInterval <= 0 {
		errs = append(errs, "launch.reapInterval must be positive")
	}
	if cfg.Launch.QueueSize <= 0 {
		errs = append(errs, "launch.queueSize must be positive")
	}

	if cfg.RateLimit.LaunchPerSecond < 0 {
		errs = append(errs, "ratelimit.launchPerSecond must not be negative")
	}
	if cfg.RateLimit.LaunchPerSecond > 0 && cfg.RateLimit.Burst <= 0 {
		errs = append(errs, "ratelimit.burst must be positive when rate limiting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
