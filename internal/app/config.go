package app

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	DBPath         string        `envconfig:"DB_PATH" default:"shopledger.db"`
	DBMaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"1"`
	DBBusyTimeout  time.Duration `envconfig:"DB_BUSY_TIMEOUT" default:"5s"`

	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"10m"`

	GotenbergURL     string        `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"20s"`

	BackupDir      string `envconfig:"BACKUP_DIR" default:"backups"`
	BackupKeep     int    `envconfig:"BACKUP_KEEP" default:"14"`
	SnapshotCron   string `envconfig:"SNAPSHOT_CRON" default:"55 23 * * *"`
	BackupCron     string `envconfig:"BACKUP_CRON" default:"0 2 * * *"`
	ReconcileCron  string `envconfig:"RECONCILE_CRON" default:"30 2 * * *"`
	WarmupCron     string `envconfig:"WARMUP_CRON" default:"*/15 8-22 * * *"`
	WorkerParallel int    `envconfig:"WORKER_CONCURRENCY" default:"1"`
	WorkerMetrics  string `envconfig:"WORKER_METRICS_ADDR"`

	ShopName string `envconfig:"SHOP_NAME" default:"Shop Ledger"`
	Currency string `envconfig:"CURRENCY" default:"PKR"`
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory (or the file named by SHOPLEDGER_ENV_FILE) is applied
// first without overriding variables that are already set.
func LoadConfig() (*Config, error) {
	file := os.Getenv("SHOPLEDGER_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		return nil, errors.New("database path must be provided")
	}
	if cfg.DBMaxOpenConns <= 0 {
		cfg.DBMaxOpenConns = 1
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
