package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Provider ProviderConfig `mapstructure:"provider"`
	Outage   OutageConfig   `mapstructure:"outage"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProviderConfig controls the simulated payment provider and the client that
// calls it. Rates are probabilities in [0,1]; the simulator rolls once per
// charge: timeout first, then decline, otherwise success.
type ProviderConfig struct {
	ChargeURL   string        `mapstructure:"charge_url"`
	Timeout     time.Duration `mapstructure:"timeout"`      // client-side deadline
	TimeoutRate float64       `mapstructure:"timeout_rate"` // simulator: slow-response probability
	DeclineRate float64       `mapstructure:"decline_rate"` // simulator: decline probability
}

// OutageConfig bounds financial exposure while the provider is unreachable.
type OutageConfig struct {
	// PendingCapCents is the exclusive upper bound on order amounts eligible
	// for PENDING_PAYMENT during a provider outage.
	PendingCapCents int64 `mapstructure:"pending_cap_cents"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PRM_ (Payments
// Reliability Milestone). Nested keys use underscore: PRM_DATABASE_HOST,
// PRM_OUTAGE_PENDING_CAP_CENTS, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payments")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("provider.charge_url", "http://localhost:8080/_provider/charge")
	v.SetDefault("provider.timeout", "350ms")
	v.SetDefault("provider.timeout_rate", 0.35)
	v.SetDefault("provider.decline_rate", 0.10)
	v.SetDefault("outage.pending_cap_cents", 20000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PRM_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Outage.PendingCapCents < 0 {
		return nil, fmt.Errorf("outage.pending_cap_cents must be non-negative, got %d", cfg.Outage.PendingCapCents)
	}
	if cfg.Provider.TimeoutRate < 0 || cfg.Provider.TimeoutRate > 1 {
		return nil, fmt.Errorf("provider.timeout_rate must be in [0,1], got %v", cfg.Provider.TimeoutRate)
	}
	if cfg.Provider.DeclineRate < 0 || cfg.Provider.DeclineRate > 1 {
		return nil, fmt.Errorf("provider.decline_rate must be in [0,1], got %v", cfg.Provider.DeclineRate)
	}

	return &cfg, nil
}
