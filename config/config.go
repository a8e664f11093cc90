package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Actor   ActorConfig   `mapstructure:"actor"`
	Rates   RatesConfig   `mapstructure:"rates"`
	Account AccountConfig `mapstructure:"account"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// Addr returns the listen address string.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig configures the sharded storage pool.
type StorageConfig struct {
	Workers    int    `mapstructure:"workers"`     // number of pool slots
	BaseFolder string `mapstructure:"base_folder"` // root of the on-disk layout
}

// ActorConfig configures per-account actor behaviour.
type ActorConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`     // actor self-termination after inactivity
	TransferWorkers int           `mapstructure:"transfer_workers"` // pool size for cross-account helper tasks
}

// RatesConfig configures the exchange rate table.
type RatesConfig struct {
	RefreshInterval time.Duration      `mapstructure:"refresh_interval"`
	Seed            map[string]float64 `mapstructure:"seed"` // currency -> rate against the pivot
}

// AccountConfig carries the defaults applied to accounts created on first access.
type AccountConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
	DefaultLimit    int64  `mapstructure:"default_limit"` // floor the default-currency balance may reach
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenExpiry   time.Duration `mapstructure:"token_expiry"`
	Issuer        string        `mapstructure:"issuer"`
	AccessKeyHash string        `mapstructure:"access_key_hash"` // Argon2id-encoded operator access key
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BANK_.
// Nested keys use underscore: BANK_STORAGE_WORKERS, BANK_AUTH_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.workers", 3)
	v.SetDefault("storage.base_folder", "./data")
	v.SetDefault("actor.idle_timeout", "240s")
	v.SetDefault("actor.transfer_workers", 64)
	v.SetDefault("rates.refresh_interval", "1h")
	v.SetDefault("rates.seed", map[string]float64{
		"USD": 1,
		"BRL": 5.45,
		"EUR": 0.92,
		"GBP": 0.79,
	})
	v.SetDefault("account.default_currency", "BRL")
	v.SetDefault("account.default_limit", -500)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiry", "24h")
	v.SetDefault("auth.issuer", "banking-prototype")
	v.SetDefault("auth.access_key_hash", "")
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

	// Environment variables: BANK_STORAGE_WORKERS -> storage.workers
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Viper lowercases map keys; currency codes are upper-case by convention.
	seed := make(map[string]float64, len(cfg.Rates.Seed))
	for code, rate := range cfg.Rates.Seed {
		seed[strings.ToUpper(code)] = rate
	}
	cfg.Rates.Seed = seed
	cfg.Account.DefaultCurrency = strings.ToUpper(cfg.Account.DefaultCurrency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants the engine depends on.
func (c *Config) Validate() error {
	if c.Storage.Workers < 1 {
		return fmt.Errorf("storage.workers must be >= 1, got %d", c.Storage.Workers)
	}
	if c.Actor.IdleTimeout <= 0 {
		return fmt.Errorf("actor.idle_timeout must be positive, got %s", c.Actor.IdleTimeout)
	}
	if c.Actor.TransferWorkers < 1 {
		return fmt.Errorf("actor.transfer_workers must be >= 1, got %d", c.Actor.TransferWorkers)
	}
	if c.Rates.RefreshInterval < time.Second {
		return fmt.Errorf("rates.refresh_interval must be >= 1s, got %s", c.Rates.RefreshInterval)
	}
	if len(c.Rates.Seed) == 0 {
		return fmt.Errorf("rates.seed must not be empty")
	}
	if c.Account.DefaultCurrency == "" {
		return fmt.Errorf("account.default_currency must not be empty")
	}
	if _, ok := c.Rates.Seed[c.Account.DefaultCurrency]; !ok {
		return fmt.Errorf("account.default_currency %q missing from rates.seed", c.Account.DefaultCurrency)
	}
	return nil
}
