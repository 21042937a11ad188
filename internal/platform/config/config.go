package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName    string   `envconfig:"SERVICE_NAME" default:"codedrop"`
	HTTPPort       string   `envconfig:"HTTP_PORT" default:"8080"`
	DatabaseDriver string   `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	PostgresDSN    string   `envconfig:"POSTGRES_DSN"`
	SQLitePath     string   `envconfig:"SQLITE_PATH" default:"codedrop.sqlite"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	// WorkerMetricsPort serves /metrics from the worker process.
	WorkerMetricsPort string `envconfig:"WORKER_METRICS_PORT" default:"9091"`
	// InternalAPIToken guards internal write routes. Empty rejects every caller.
	InternalAPIToken  string `envconfig:"INTERNAL_API_TOKEN"`

	ReservationTTL    time.Duration `envconfig:"RESERVATION_TTL" default:"2m"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	RelayInterval     time.Duration `envconfig:"RELAY_INTERVAL" default:"2s"`
	SweepBatchSize    int           `envconfig:"SWEEP_BATCH_SIZE" default:"100"`
	OutboxBatchSize   int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PasswordCacheSize int           `envconfig:"PASSWORD_CACHE_SIZE" default:"4096"`
	DefaultRiskScore  int           `envconfig:"DEFAULT_RISK_SCORE" default:"50"`
	EventDedupTTL     time.Duration `envconfig:"EVENT_DEDUP_TTL" default:"168h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	EnableProfileConsumer bool `envconfig:"ENABLE_PROFILE_CONSUMER" default:"true"`
	EnableOutboxRelay     bool `envconfig:"ENABLE_OUTBOX_RELAY" default:"true"`
	EnableSweeper         bool `envconfig:"ENABLE_RESERVATION_SWEEPER" default:"true"`
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DatabaseDriver)) {
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required when DATABASE_DRIVER=postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required when DATABASE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.ReservationTTL <= 0 {
		return errors.New("RESERVATION_TTL must be positive")
	}
	if c.SweepInterval <= 0 || c.RelayInterval <= 0 {
		return errors.New("worker intervals must be positive")
	}
	if c.DefaultRiskScore < 0 || c.DefaultRiskScore > 100 {
		return errors.New("DEFAULT_RISK_SCORE must be within 0..100")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func loadDotEnv() error {
	path := ".env"
	if custom := strings.TrimSpace(os.Getenv("ENV_FILE")); custom != "" {
		path = custom
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
