// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server and the worker.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppIdleTimeout  time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns      int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns      int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	DBConnLifetime  time.Duration `envconfig:"DB_CONN_LIFETIME" default:"1h"`
	DBStatementTime time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"30s"`
	DBAutoMigrate   bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	// RedisAddr enables the approval lock and the task queue when set.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	ApprovalLockTTL     time.Duration `envconfig:"APPROVAL_LOCK_TTL" default:"10s"`
	NumberRetryAttempts int           `envconfig:"NUMBER_RETRY_ATTEMPTS" default:"3"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"stockgate"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"15m"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"500ms"`
	WorkerBatchSize    int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	WorkerDLQInterval  time.Duration `envconfig:"WORKER_DLQ_INTERVAL" default:"1h"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing file is not an error.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.NumberRetryAttempts < 1 {
		return errors.New("NUMBER_RETRY_ATTEMPTS must be at least 1")
	}
	if c.ApprovalLockTTL <= 0 {
		return errors.New("APPROVAL_LOCK_TTL must be positive")
	}
	if c.WorkerBatchSize <= 0 {
		return errors.New("WORKER_BATCH_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether verbose, human-oriented output is wanted.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
