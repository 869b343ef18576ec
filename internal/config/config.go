package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Lock     LockConfig
	Ledger   LedgerConfig
	Accounts AccountsConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type LockConfig struct {
	Backend         string
	Expiry          time.Duration
	RetryDelay      time.Duration
	AcquireTimeout  time.Duration
	DriftFactor     float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type LedgerConfig struct {
	ReversalWindowYears int
	DebitDelay          time.Duration
	// CacheTTL of zero disables the ledger read cache.
	CacheTTL time.Duration
}

type AccountsConfig struct {
	MaxPerUser int
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
}

type DatabaseConfig struct {
	Migrate bool
}

var bindings = map[string]string{
	"server.port":                  "PORT",
	"server.read_timeout":          "SERVER_READ_TIMEOUT",
	"server.write_timeout":         "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":          "SERVER_IDLE_TIMEOUT",
	"server.allow_origins":         "ALLOW_ORIGINS",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
	"lock.backend":                 "LOCK_BACKEND",
	"lock.expiry":                  "LOCK_EXPIRY",
	"lock.retry_delay":             "LOCK_RETRY_DELAY",
	"lock.acquire_timeout":         "LOCK_ACQUIRE_TIMEOUT",
	"lock.drift_factor":            "LOCK_DRIFT_FACTOR",
	"lock.breaker_failures":        "LOCK_BREAKER_FAILURES",
	"lock.breaker_timeout":         "LOCK_BREAKER_TIMEOUT",
	"ledger.reversal_window_years": "LEDGER_REVERSAL_WINDOW_YEARS",
	"ledger.debit_delay":           "LEDGER_DEBIT_DELAY",
	"ledger.cache_ttl":             "LEDGER_CACHE_TTL",
	"accounts.max_per_user":        "ACCOUNTS_MAX_PER_USER",
	"auth.enabled":                 "AUTH_ENABLED",
	"jwt.secret_key":               "JWT_SECRET_KEY",
	"database.migrate":             "DATABASE_MIGRATE",
	"database.host":                "DATABASE_HOST",
	"database.port":                "DATABASE_PORT",
	"database.user":                "DATABASE_USER",
	"database.password":            "DATABASE_PASSWORD",
	"database.name":                "DATABASE_NAME",
	"database.ssl_mode":            "DATABASE_SSL_MODE",
	"redis.host":                   "REDIS_HOST",
	"redis.port":                   "REDIS_PORT",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("lock.backend", LockBackendRedis)
	v.SetDefault("lock.expiry", 10*time.Second)
	v.SetDefault("lock.retry_delay", 100*time.Millisecond)
	v.SetDefault("lock.acquire_timeout", 10*time.Second)
	v.SetDefault("lock.drift_factor", 0.01)
	v.SetDefault("lock.breaker_failures", 5)
	v.SetDefault("lock.breaker_timeout", 30*time.Second)
	v.SetDefault("ledger.reversal_window_years", 1)
	v.SetDefault("ledger.debit_delay", time.Duration(0))
	v.SetDefault("ledger.cache_ttl", 10*time.Minute)
	v.SetDefault("accounts.max_per_user", 10)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("database.migrate", true)
}

// Load reads .env (when present) and the environment into v. Database and
// redis connection keys are bound here and read by the database package.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// SetConfigFile skips the search path, so a missing .env is a plain fs error.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	v.AutomaticEnv()

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			AllowOrigins: v.GetStringSlice("server.allow_origins"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Lock: LockConfig{
			Backend:         strings.ToLower(v.GetString("lock.backend")),
			Expiry:          v.GetDuration("lock.expiry"),
			RetryDelay:      v.GetDuration("lock.retry_delay"),
			AcquireTimeout:  v.GetDuration("lock.acquire_timeout"),
			DriftFactor:     v.GetFloat64("lock.drift_factor"),
			BreakerFailures: v.GetUint32("lock.breaker_failures"),
			BreakerTimeout:  v.GetDuration("lock.breaker_timeout"),
		},
		Ledger: LedgerConfig{
			ReversalWindowYears: v.GetInt("ledger.reversal_window_years"),
			DebitDelay:          v.GetDuration("ledger.debit_delay"),
			CacheTTL:            v.GetDuration("ledger.cache_ttl"),
		},
		Accounts: AccountsConfig{
			MaxPerUser: v.GetInt("accounts.max_per_user"),
		},
		Auth: AuthConfig{
			Enabled:   v.GetBool("auth.enabled"),
			JWTSecret: v.GetString("jwt.secret_key"),
		},
		Database: DatabaseConfig{
			Migrate: v.GetBool("database.migrate"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Lock.Backend {
	case LockBackendRedis, LockBackendMemory:
	default:
		return fmt.Errorf("lock.backend must be %q or %q, got %q", LockBackendRedis, LockBackendMemory, c.Lock.Backend)
	}
	if c.Lock.Expiry <= 0 {
		return errors.New("lock.expiry must be greater than 0")
	}
	if c.Ledger.ReversalWindowYears < 1 {
		return errors.New("ledger.reversal_window_years must be at least 1")
	}
	if c.Ledger.DebitDelay < 0 {
		return errors.New("ledger.debit_delay cannot be negative")
	}
	// The delay runs while the lease is held.
	if c.Ledger.DebitDelay >= c.Lock.Expiry {
		return fmt.Errorf("ledger.debit_delay (%s) must be shorter than lock.expiry (%s)", c.Ledger.DebitDelay, c.Lock.Expiry)
	}
	if c.Accounts.MaxPerUser < 1 {
		return errors.New("accounts.max_per_user must be at least 1")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("jwt.secret_key is required when auth is enabled")
	}
	return nil
}
