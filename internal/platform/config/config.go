// Package config sources all process configuration from the environment so
// main stays lean and tests can construct configs directly.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr          string
	JWTSigningKey string

	// CipherKey encrypts sensitive identifier fields at rest; DigestKey
	// keys the deterministic equality index. They must be distinct secrets.
	CipherKey string
	DigestKey string

	// RequireKeys makes missing crypto keys fatal. When false the privacy
	// layer runs degraded: writes pass through with a logged warning.
	RequireKeys bool

	DatabaseURL string
	Redis       RedisConfig
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("LEDGERDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; production must override.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		CipherKey:     os.Getenv("LEDGERDESK_CIPHER_KEY"),
		DigestKey:     os.Getenv("LEDGERDESK_DIGEST_KEY"),
		RequireKeys:   os.Getenv("LEDGERDESK_REQUIRE_KEYS") == "true",
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

// Validate checks fatal misconfiguration. Missing crypto keys are only fatal
// when RequireKeys is set; everything else degrades at runtime instead.
func (c Config) Validate() error {
	if c.RequireKeys {
		if c.CipherKey == "" {
			return errors.New("LEDGERDESK_CIPHER_KEY is required when LEDGERDESK_REQUIRE_KEYS is set")
		}
		if c.DigestKey == "" {
			return errors.New("LEDGERDESK_DIGEST_KEY is required when LEDGERDESK_REQUIRE_KEYS is set")
		}
	}
	if c.CipherKey != "" && c.CipherKey == c.DigestKey {
		return errors.New("cipher and digest keys must be distinct secrets")
	}
	return nil
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
