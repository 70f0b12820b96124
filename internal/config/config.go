// Package config loads the server configuration from the environment.
//
// An optional .env file in the working directory is read first; variables
// already present in the process environment win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the composition root needs. It is built once in
// main and passed down explicitly; nothing reads the environment after Load.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         int
	MaxBodyBytes int64
	// TrustProxy takes the client address from X-Forwarded-For and friends.
	// Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

type DatabaseConfig struct {
	Driver       string // sqlite, mysql or postgres
	DSN          string
	MaxOpenConns int
}

// JWTConfig mirrors the knobs of the token provider: lifetime, clock leeway,
// not-before delta, the Authorization scheme and the login path.
type JWTConfig struct {
	Secret           string
	Issuer           string
	Expiration       time.Duration
	NotBefore        time.Duration
	Leeway           time.Duration
	AuthHeaderPrefix string
	AuthURL          string
}

type CORSConfig struct {
	AllowedOrigins []string // empty disables CORS handling
}

type AuthConfig struct {
	BcryptCost     int
	LoginRateLimit int // attempts per minute per client IP
}

// Load reads configuration from environment variables, applying defaults for
// everything except JWT_SECRET.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup function so tests can
// supply a map instead of mutating the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	cfg := &Config{}

	cfg.Server.Port = p.integer("PORT", 8080)
	cfg.Server.MaxBodyBytes = int64(p.integer("MAX_BODY_BYTES", 1<<20))
	cfg.Server.TrustProxy = p.boolean("TRUST_PROXY", false)

	cfg.Logging.Level = p.str("LOG_LEVEL", "info")
	cfg.Logging.Format = p.str("LOG_FORMAT", "json")

	cfg.Database.Driver = strings.ToLower(p.str("DB_DRIVER", "sqlite"))
	cfg.Database.DSN = p.str("DB_DSN", "podcasts.sqlite")
	cfg.Database.MaxOpenConns = p.integer("DB_MAX_OPEN_CONNS", 10)

	cfg.JWT.Secret = getenv("JWT_SECRET")
	cfg.JWT.Issuer = p.str("JWT_ISSUER", "podcasts")
	cfg.JWT.Expiration = p.duration("JWT_EXPIRATION", 5*time.Minute)
	cfg.JWT.NotBefore = p.duration("JWT_NOT_BEFORE", 0)
	cfg.JWT.Leeway = p.duration("JWT_LEEWAY", 10*time.Second)
	cfg.JWT.AuthHeaderPrefix = p.str("JWT_AUTH_HEADER_PREFIX", "Bearer")
	cfg.JWT.AuthURL = p.str("JWT_AUTH_URL", "/auth")

	cfg.CORS.AllowedOrigins = splitList(getenv("CORS_ALLOWED_ORIGINS"))

	cfg.Auth.BcryptCost = p.integer("BCRYPT_COST", 12)
	cfg.Auth.LoginRateLimit = p.integer("AUTH_RATE_LIMIT", 10)

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules that defaults alone cannot guarantee.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION must be positive")
	}
	if c.JWT.Leeway < 0 || c.JWT.NotBefore < 0 {
		return fmt.Errorf("config: JWT_LEEWAY and JWT_NOT_BEFORE must not be negative")
	}
	if strings.ContainsAny(c.JWT.AuthHeaderPrefix, " \t") || c.JWT.AuthHeaderPrefix == "" {
		return fmt.Errorf("config: JWT_AUTH_HEADER_PREFIX must be a single word")
	}
	if !strings.HasPrefix(c.JWT.AuthURL, "/") {
		return fmt.Errorf("config: JWT_AUTH_URL must start with /")
	}
	if c.Auth.LoginRateLimit <= 0 {
		return fmt.Errorf("config: AUTH_RATE_LIMIT must be positive")
	}
	return nil
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
