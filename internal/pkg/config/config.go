package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// JWTSecret enables HS256 verification of access tokens. When empty
	// tokens are decoded without verification; the backend stays
	// authoritative either way.
	JWTSecret string `env:"JWT_SECRET"`

	Backend BackendConfig
	Cookies CookieConfig
	Cache   CacheConfig
	Audit   AuditConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type BackendConfig struct {
	URL           string        `env:"BACKEND_URL,     default=http://localhost:5000"`
	Timeout       time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
	DetailTimeout time.Duration `env:"DETAIL_TIMEOUT,  default=8s"`
}

type CookieConfig struct {
	Domain       string `env:"COOKIE_DOMAIN"`
	Secure       bool   `env:"COOKIE_SECURE,     default=false"`
	CrossSite    bool   `env:"COOKIE_CROSS_SITE, default=false"`
	AccessName   string `env:"COOKIE_ACCESS,     default=access_token"`
	RefreshName  string `env:"COOKIE_REFRESH,    default=refresh_token"`
	RememberName string `env:"COOKIE_REMEMBER,   default=remember_me"`
	ContextName  string `env:"COOKIE_CONTEXT,    default=hs_ctx"`
}

type CacheConfig struct {
	QueryTTL       time.Duration `env:"QUERY_CACHE_TTL,  default=30s"`
	PendingAuthTTL time.Duration `env:"PENDING_AUTH_TTL, default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=heartspace_gateway"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the gateway runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Audit.Workers < 1 {
		return nil, fmt.Errorf("AUDIT_WORKERS must be at least 1, got %d", cfg.Audit.Workers)
	}
	return &cfg, nil
}
