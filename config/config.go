// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and TIMESHEET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/timesheet-engine/factory"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// DevSecret is the signing secret used when none is configured.
const DevSecret = "dev-secret-change-in-production"

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Auth     AuthConfig        `mapstructure:"auth"`
	Rules    factory.RulesJSON `mapstructure:"rules"`
	RabbitMQ RabbitMQConfig    `mapstructure:"rabbitmq"`
	Sessions SessionsConfig    `mapstructure:"sessions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the SQLite location. ":memory:" keeps everything in RAM.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig holds JWT configuration
type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// RabbitMQConfig holds the event publisher configuration. An empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// SessionsConfig controls eviction of idle open timesheets.
type SessionsConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Load reads the configuration. configFile, when non-empty, replaces the
// default search for timesheet.yaml in ./config and /etc/timesheet.
func Load(configFile string) (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TIMESHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("timesheet")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/timesheet")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.path", "./data/timesheets.db")

	// Auth defaults
	v.SetDefault("auth.secret", DevSecret)
	v.SetDefault("auth.issuer", "timesheet-engine")
	v.SetDefault("auth.token_expiry", 24*time.Hour)

	// Rules defaults
	v.SetDefault("rules.week_start", "monday")
	v.SetDefault("rules.daily_cap", 8)
	v.SetDefault("rules.half_day_cap", 4)
	v.SetDefault("rules.weekly_cap", 40)
	v.SetDefault("rules.grace_leave_days", 2)
	v.SetDefault("rules.weekly_cap_mode", "submit")

	// RabbitMQ defaults (publishing disabled)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "timesheet.events")

	// Session defaults
	v.SetDefault("sessions.idle_timeout", 8*time.Hour)
	v.SetDefault("sessions.sweep_interval", 10*time.Minute)
}

// IsProductionLike returns true for staging and production.
func (c *Config) IsProductionLike() bool {
	return c.Server.Environment == EnvStaging || c.Server.Environment == EnvProduction
}

// Validate checks the configuration is usable in its environment.
func (c *Config) Validate() error {
	switch c.Server.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Server.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("TIMESHEET_DATABASE_PATH must not be empty")
	}
	if c.Auth.TokenExpiry <= 0 {
		return errors.New("auth token expiry must be positive")
	}
	if c.Sessions.IdleTimeout <= 0 || c.Sessions.SweepInterval <= 0 {
		return errors.New("session idle timeout and sweep interval must be positive")
	}
	if c.IsProductionLike() && (c.Auth.Secret == "" || c.Auth.Secret == DevSecret) {
		return errors.New("TIMESHEET_AUTH_SECRET must be set to a secure value in " + c.Server.Environment)
	}
	if _, err := factory.NewPolicyFactory().FromJSON(c.Rules); err != nil {
		return fmt.Errorf("rules configuration error: %w", err)
	}
	return nil
}
