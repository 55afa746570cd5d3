package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace for every AUTHKIT_* variable.
const EnvPrefix = "authkit"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Password PasswordConfig
	Seeder   SeederConfig
	Throttle ThrottleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AUTHKIT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"AUTHKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTHKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTHKIT_DB_DSN" default:"file::memory:?cache=shared"`
	Driver string `envconfig:"AUTHKIT_DB_DRIVER" default:"sqlite"`

	AutoMigrate bool `envconfig:"AUTHKIT_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"AUTHKIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTHKIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTHKIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTHKIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTHKIT_REDIS_URL"`
	Address      string        `envconfig:"AUTHKIT_REDIS_ADDR"`
	Password     string        `envconfig:"AUTHKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTHKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTHKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTHKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTHKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTHKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTHKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis endpoint was provided at all. The login
// throttle is skipped entirely when it was not.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"AUTHKIT_BCRYPT_COST" default:"10"`
}

// SeederConfig carries the cleartext passwords for the canonical demo
// accounts. These exist so a fresh database is immediately usable; production
// deployments disable the seeder.
type SeederConfig struct {
	Enabled bool `envconfig:"AUTHKIT_SEEDER_ENABLED" default:"true"`

	AdminPassword     string `envconfig:"AUTHKIT_SEED_ADMIN_PASSWORD" default:"admin123"`
	ManagerPassword   string `envconfig:"AUTHKIT_SEED_MANAGER_PASSWORD" default:"manager123"`
	UserPassword      string `envconfig:"AUTHKIT_SEED_USER_PASSWORD" default:"user123"`
	DisabledPassword  string `envconfig:"AUTHKIT_SEED_DISABLED_PASSWORD" default:"disabled123"`
	LockedPassword    string `envconfig:"AUTHKIT_SEED_LOCKED_PASSWORD" default:"locked123"`
	ExpiredPassword   string `envconfig:"AUTHKIT_SEED_EXPIRED_PASSWORD" default:"expired123"`
	StalePassPassword string `envconfig:"AUTHKIT_SEED_STALEPASS_PASSWORD" default:"stalepass123"`
}

type ThrottleConfig struct {
	Window          time.Duration `envconfig:"AUTHKIT_THROTTLE_WINDOW" default:"1m"`
	IdentifierLimit int           `envconfig:"AUTHKIT_THROTTLE_IDENTIFIER_LIMIT" default:"5"`
}
