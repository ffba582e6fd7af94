// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"CANDLEPIN_ADDR" envDefault:":8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	ShutdownTimeout time.Duration `env:"CANDLEPIN_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"CANDLEPIN_LOG_LEVEL" envDefault:"info"`

	Redis      RedisConfig
	Compliance ComplianceConfig
	Rules      RulesConfig
}

// RedisConfig configures the optional Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// ComplianceConfig tunes evaluation and owner-wide refresh.
type ComplianceConfig struct {
	RefreshConcurrency int           `env:"COMPLIANCE_REFRESH_CONCURRENCY" envDefault:"8"`
	TxTimeout          time.Duration `env:"COMPLIANCE_TX_TIMEOUT" envDefault:"5s"`
}

// RulesConfig tunes the rules curator.
type RulesConfig struct {
	CacheTTL time.Duration `env:"RULES_CACHE_TTL" envDefault:"30s"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Compliance.RefreshConcurrency < 1 {
		return Server{}, fmt.Errorf("COMPLIANCE_REFRESH_CONCURRENCY must be positive, got %d", cfg.Compliance.RefreshConcurrency)
	}
	return cfg, nil
}
