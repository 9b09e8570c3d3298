package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/telemetry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Environment string

const (
	LOCAL Environment = "local"
	PROD  Environment = "prod"
)

type StoreBackend string

const (
	STORE_MEMORY   StoreBackend = "memory"
	STORE_DYNAMO   StoreBackend = "dynamo"
	STORE_POSTGRES StoreBackend = "postgres"
)

type Config struct {
	Env      Environment `env:"ENV" envDefault:"local"`
	Host     string      `env:"HOST" envDefault:"0.0.0.0"`
	Port     string      `env:"PORT" envDefault:"8080"`
	LogLevel slog.Level  `env:"LOG_LEVEL" envDefault:"INFO"`

	Store           StoreBackend `env:"STORE" envDefault:"memory"`
	DynamoTableName string       `env:"DYNAMO_TABLE_NAME" envDefault:"RaceRegistration"`
	// DynamoEndpoint overrides the AWS endpoint, for dynamodb-local.
	DynamoEndpoint string `env:"DYNAMO_ENDPOINT"`
	DatabaseURL    string `env:"DATABASE_URL"`

	JWTSecret string `env:"JWT_SECRET"`
	// JWTSecretSSMParam names an SSM parameter holding the signing key. It wins over JWTSecret.
	JWTSecretSSMParam  string   `env:"JWT_SECRET_SSM_PARAM"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://runnconnect.com.ar"`

	AdmissionAttempts int           `env:"ADMISSION_ATTEMPTS" envDefault:"2"`
	ProfileCacheTTL   time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"0s"`
	DefaultLocale     string        `env:"DEFAULT_LOCALE" envDefault:"es"`

	Tracing telemetry.Config `envPrefix:"TRACING_"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	return Parse()
}

// Parse builds a Config from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Env {
	case LOCAL, PROD:
	default:
		return fmt.Errorf("ENV must be %q or %q, got %q", LOCAL, PROD, c.Env)
	}

	switch c.Store {
	case STORE_MEMORY:
	case STORE_DYNAMO:
		if c.DynamoTableName == "" {
			return errors.New("DYNAMO_TABLE_NAME is required for the dynamo store")
		}
	case STORE_POSTGRES:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.AdmissionAttempts < 1 {
		return fmt.Errorf("ADMISSION_ATTEMPTS must be at least 1, got %d", c.AdmissionAttempts)
	}
	if c.ProfileCacheTTL < 0 {
		return fmt.Errorf("PROFILE_CACHE_TTL cannot be negative, got %s", c.ProfileCacheTTL)
	}
	if c.Env == PROD && c.JWTSecret == "" && c.JWTSecretSSMParam == "" {
		return errors.New("JWT_SECRET or JWT_SECRET_SSM_PARAM is required in prod")
	}

	return nil
}

func (c Config) IsLocal() bool {
	return c.Env == LOCAL
}
