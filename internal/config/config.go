package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"dev"`
	Port        int    `env:"PORT" envDefault:"8080"`
	ProjectName string `env:"PROJECT_NAME" envDefault:"accounts"`
	Store       string `env:"STORE" envDefault:"postgres"`

	DBURL      string `env:"DATABASE_URL"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"accounts"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"accounts"`
	DBName     string `env:"DB_NAME" envDefault:"accounts"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"5"`

	JWTSecret                 string `env:"JWT_SECRET_KEY"`
	JWTRefreshSecret          string `env:"JWT_REFRESH_SECRET_KEY"`
	Algorithm                 string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes  int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireMinutes int    `env:"REFRESH_TOKEN_EXPIRE_MINUTES" envDefault:"10080"`
	HashCost                  int    `env:"HASH_COST" envDefault:"10"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" envDefault:"30s"`

	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MaxBodyBytes   int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	SeedEmail     string `env:"SEED_USER_EMAIL"`
	SeedPassword  string `env:"SEED_USER_PASSWORD"`
	SeedFirstName string `env:"SEED_USER_FIRST_NAME" envDefault:"Admin"`
	SeedLastName  string `env:"SEED_USER_LAST_NAME" envDefault:"User"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET_KEY is required"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET_KEY and JWT_REFRESH_SECRET_KEY must differ"))
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not supported", c.Algorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 || c.RefreshTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("token expiry minutes must be positive"))
	}
	if c.HashCost < bcrypt.MinCost || c.HashCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("HASH_COST must be within [%d,%d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE %q is not one of postgres|memory", c.Store))
	}
	if c.OTELSampleRatio < 0 || c.OTELSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be within [0,1]"))
	}
	if c.UserCacheTTL < 0 {
		errs = append(errs, errors.New("USER_CACHE_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireMinutes) * time.Minute
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
