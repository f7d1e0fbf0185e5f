package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendLocal  = "local"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	SessionTTL   time.Duration `env:"SESSION_TTL,   default=24h"`
	StoreBackend string        `env:"STORE_BACKEND, default=mongo"`
	LockBackend  string        `env:"LOCK_BACKEND,  default=redis"`
	LockTTL      time.Duration `env:"LOCK_TTL,      default=10s"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Interest InterestConfig
	Password PasswordConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=bank_teller"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type InterestConfig struct {
	Rate       string        `env:"INTEREST_RATE,        default=0.20"`
	SystemUser string        `env:"INTEREST_SYSTEM_USER, default=InterestOperator"`
	Interval   time.Duration `env:"INTEREST_INTERVAL,    default=24h"`
	Workers    int           `env:"INTEREST_WORKERS,     default=4"`
}

type PasswordConfig struct {
	Scheme string `env:"PASSWORD_SCHEME, default=sha256"`
	Pepper string `env:"PASSWORD_PEPPER"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the bootstrap cannot wire.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("config: STORE_BACKEND %q must be %q or %q", c.StoreBackend, BackendMongo, BackendMemory)
	}
	switch c.LockBackend {
	case BackendRedis, BackendLocal:
	default:
		return fmt.Errorf("config: LOCK_BACKEND %q must be %q or %q", c.LockBackend, BackendRedis, BackendLocal)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if _, err := c.InterestRate(); err != nil {
		return err
	}
	return nil
}

// InterestRate parses INTEREST_RATE. Negative rates are rejected.
func (c *Config) InterestRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.Interest.Rate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("config: INTEREST_RATE %q: %w", c.Interest.Rate, err)
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("config: INTEREST_RATE %q must not be negative", c.Interest.Rate)
	}
	return rate, nil
}

// UsesRedis reports whether locks and sessions live in Redis. Otherwise
// both are kept in process.
func (c *Config) UsesRedis() bool {
	return c.LockBackend == BackendRedis
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
