package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/runai/stackctl/internal/core/stack"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Ledger LedgerConfig `mapstructure:"ledger"`
	Docker DockerConfig `mapstructure:"docker"`
	Stack  StackConfig  `mapstructure:"stack"`
	Probe  ProbeConfig  `mapstructure:"probe"`
	Log    LogConfig    `mapstructure:"log"`
}

// LedgerConfig holds deployment ledger configuration.
type LedgerConfig struct {
	// Backend selects the ledger storage: "file" or "sqlite".
	Backend string `mapstructure:"backend"`

	// Path is the ledger file path (file backend).
	Path string `mapstructure:"path"`

	// DSN is the database path (sqlite backend).
	DSN string `mapstructure:"dsn"`

	// ConfigDir is the directory for materialized deployment config files.
	ConfigDir string `mapstructure:"config_dir"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// StackConfig holds the base names, ports and images that resolution
// starts from. Every value can be overridden per environment.
type StackConfig struct {
	PostgresName   string `mapstructure:"postgres_name"`
	WebUIName      string `mapstructure:"webui_name"`
	LBName         string `mapstructure:"lb_name"`
	NetworkName    string `mapstructure:"network_name"`
	PostgresPort   int    `mapstructure:"postgres_port"`
	WebUIPort      int    `mapstructure:"webui_port"`
	LBPort         int    `mapstructure:"lb_port"`
	DatabaseName   string `mapstructure:"database_name"`
	DatabaseUser   string `mapstructure:"database_user"`
	PostgresImage  string `mapstructure:"postgres_image"`
	WebUIImage     string `mapstructure:"webui_image"`
	LBImage        string `mapstructure:"lb_image"`
	PostgresVolume string `mapstructure:"postgres_volume"`
}

// ProbeConfig holds post-start readiness probe configuration.
type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults converts the stack section into resolution defaults.
func (c StackConfig) Defaults() stack.Defaults {
	return stack.Defaults{
		PostgresName:   c.PostgresName,
		WebUIName:      c.WebUIName,
		LBName:         c.LBName,
		NetworkName:    c.NetworkName,
		PostgresPort:   c.PostgresPort,
		WebUIPort:      c.WebUIPort,
		LBPort:         c.LBPort,
		DatabaseName:   c.DatabaseName,
		DatabaseUser:   c.DatabaseUser,
		PostgresImage:  c.PostgresImage,
		WebUIImage:     c.WebUIImage,
		LBImage:        c.LBImage,
		PostgresVolume: c.PostgresVolume,
	}
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("ledger.backend", "file")
	v.SetDefault("ledger.path", "./data/deployments.ledger")
	v.SetDefault("ledger.dsn", "./data/stackctl.db")
	v.SetDefault("ledger.config_dir", "./data/configs")
	v.SetDefault("docker.host", "")
	v.SetDefault("stack.postgres_name", "runai-postgres")
	v.SetDefault("stack.webui_name", "runai-webui")
	v.SetDefault("stack.lb_name", "runai-lb")
	v.SetDefault("stack.network_name", "runai-net")
	v.SetDefault("stack.postgres_port", 5432)
	v.SetDefault("stack.webui_port", 3001)
	v.SetDefault("stack.lb_port", 80)
	v.SetDefault("stack.database_name", "openwebui_db")
	v.SetDefault("stack.database_user", "runai_user")
	v.SetDefault("stack.postgres_image", "postgres:16-alpine")
	v.SetDefault("stack.webui_image", "ghcr.io/open-webui/open-webui:main")
	v.SetDefault("stack.lb_image", "nginx:1.27-alpine")
	v.SetDefault("stack.postgres_volume", "pgdata")
	v.SetDefault("probe.timeout", "60s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("STACKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
