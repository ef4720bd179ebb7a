package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Terminal  TerminalConfig  `mapstructure:"terminal"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TerminalConfig drives the reader lifecycle.
type TerminalConfig struct {
	ID              string        `mapstructure:"id"`               // scopes the remembered reader in shared stores
	SDK             string        `mapstructure:"sdk"`              // simulator, stripe
	DiscoveryMethod string        `mapstructure:"discovery_method"` // bluetooth_scan, internet; empty = SDK default
	AutoReconnect   bool          `mapstructure:"auto_reconnect"`
	SearchTimeout   time.Duration `mapstructure:"search_timeout"` // 0 = wait until canceled
	UpdateRequired  bool          `mapstructure:"update_required"`
}

type PaymentConfig struct {
	MaxConfirmRetries   int           `mapstructure:"max_confirm_retries"`
	MaxAmbiguousRetries int           `mapstructure:"max_ambiguous_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
}

type BackendConfig struct {
	Driver  string        `mapstructure:"driver"` // http, stripe
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StripeConfig struct {
	SecretKey    string        `mapstructure:"secret_key"`
	APIURL       string        `mapstructure:"api_url"` // empty = Stripe production API
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory, redis, postgres
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

// AuthConfig configures bearer tokens for the control API.
// An empty secret disables authentication (local development only).
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Expiry    time.Duration `mapstructure:"expiry"`
	Issuer    string        `mapstructure:"issuer"`
}

type RateLimitConfig struct {
	ChargesPerMinute int64 `mapstructure:"charges_per_minute"` // 0 = unlimited
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CTM_ (Card TerMinal).
// Nested keys use underscore: CTM_TERMINAL_SDK, CTM_STRIPE_SECRET_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("terminal.id", "default")
	v.SetDefault("terminal.sdk", "simulator")
	v.SetDefault("terminal.discovery_method", "")
	v.SetDefault("terminal.auto_reconnect", true)
	v.SetDefault("terminal.search_timeout", "60s")
	v.SetDefault("terminal.update_required", false)
	v.SetDefault("payment.max_confirm_retries", 3)
	v.SetDefault("payment.max_ambiguous_retries", 1)
	v.SetDefault("payment.retry_backoff", "500ms")
	v.SetDefault("backend.driver", "http")
	v.SetDefault("backend.base_url", "http://localhost:4567")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.api_url", "")
	v.SetDefault("stripe.poll_interval", "1s")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "card_terminal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.expiry", "12h")
	v.SetDefault("auth.issuer", "card-terminal")
	v.SetDefault("rate_limit.charges_per_minute", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CTM_TERMINAL_SDK -> terminal.sdk
	v.SetEnvPrefix("CTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate rejects unknown drivers and fills in the discovery method the
// chosen SDK supports.
func (c *Config) validate() error {
	switch c.Terminal.SDK {
	case "simulator", "stripe":
	default:
		return fmt.Errorf("unknown terminal.sdk %q", c.Terminal.SDK)
	}
	switch c.Terminal.DiscoveryMethod {
	case "":
		c.Terminal.DiscoveryMethod = "bluetooth_scan"
		if c.Terminal.SDK == "stripe" {
			c.Terminal.DiscoveryMethod = "internet"
		}
	case "bluetooth_scan", "internet":
	default:
		return fmt.Errorf("unknown terminal.discovery_method %q", c.Terminal.DiscoveryMethod)
	}
	if c.Terminal.SDK == "stripe" && c.Terminal.DiscoveryMethod != "internet" {
		return fmt.Errorf("terminal.sdk stripe only discovers internet readers")
	}
	switch c.Backend.Driver {
	case "http", "stripe":
	default:
		return fmt.Errorf("unknown backend.driver %q", c.Backend.Driver)
	}
	switch c.Store.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if (c.Terminal.SDK == "stripe" || c.Backend.Driver == "stripe") && c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secret_key is required when stripe is used")
	}
	if c.Payment.MaxConfirmRetries < 0 || c.Payment.MaxAmbiguousRetries < 0 {
		return fmt.Errorf("payment retry limits must not be negative")
	}
	return nil
}
