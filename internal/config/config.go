package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	DiscordBot DiscordBotConfig
	PostgreSQL PostgreSQLConfig
	Rates      RatesConfig
	Audit      AuditConfig
}

// DiscordBotConfig holds Discord bot configuration
type DiscordBotConfig struct {
	Token string
}

// PostgreSQLConfig holds database configuration
type PostgreSQLConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Schema       string
	SSLMode      string
	PoolMaxConns int
}

// RatesConfig points the rate converter at an exchange-rate endpoint. URLTemplate
// contains "{base}"; JSONPath selects the currency->rate object in the response.
type RatesConfig struct {
	URLTemplate    string
	JSONPath       string
	TimeoutSeconds int
	MaxRetries     int
	CacheMinutes   int
}

// AuditConfig holds activity-log retention
type AuditConfig struct {
	RetentionDays int
}

// Timeout returns the per-request timeout of the rates client
func (r RatesConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched rates are reused
func (r RatesConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheMinutes) * time.Minute
}

// Retention returns how long audit entries are kept
func (a AuditConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func setDefaults(v *viper.Viper) {
	// registered so that AutomaticEnv can supply it
	v.SetDefault("DiscordBot.Token", "")

	v.SetDefault("PostgreSQL.Host", "localhost")
	v.SetDefault("PostgreSQL.Port", 5432)
	v.SetDefault("PostgreSQL.User", "postgres")
	v.SetDefault("PostgreSQL.DBName", "partner-ledger")
	v.SetDefault("PostgreSQL.Schema", "public")
	v.SetDefault("PostgreSQL.SSLMode", "disable")
	v.SetDefault("PostgreSQL.PoolMaxConns", 10)

	v.SetDefault("Rates.URLTemplate", "https://open.er-api.com/v6/latest/{base}")
	v.SetDefault("Rates.JSONPath", "$.rates")
	v.SetDefault("Rates.TimeoutSeconds", 5)
	v.SetDefault("Rates.MaxRetries", 3)
	v.SetDefault("Rates.CacheMinutes", 60)

	v.SetDefault("Audit.RetentionDays", 365)
}

// Load loads configuration from a YAML file, environment variables
// (PARTNER_LEDGER_POSTGRESQL_PASSWORD, ...) and defaults
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PARTNER_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("Config file %s not found, using defaults and environment", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PostgreSQL.Host == "" || c.PostgreSQL.DBName == "" {
		return fmt.Errorf("database configuration is incomplete")
	}
	if c.PostgreSQL.PoolMaxConns <= 0 {
		return fmt.Errorf("PostgreSQL.PoolMaxConns must be positive")
	}
	if c.Rates.URLTemplate != "" && !strings.Contains(c.Rates.URLTemplate, "{base}") {
		return fmt.Errorf("Rates.URLTemplate must contain {base}")
	}
	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("Audit.RetentionDays must be positive")
	}
	return nil
}

// RequireDiscord checks the settings the bot needs on top of the base configuration
func (c *Config) RequireDiscord() error {
	if c.DiscordBot.Token == "" {
		return fmt.Errorf("discord bot token is required")
	}
	return nil
}
