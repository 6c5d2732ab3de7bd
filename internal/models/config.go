package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Ledger   LedgerConfig
	Accrual  AccrualConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	Path            string        `env:"DATABASE_PATH" envDefault:"banking.db"`
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30s"`
	PingTimeout     time.Duration `env:"DB_PING_TIMEOUT" envDefault:"5s"`
	LockTimeout     time.Duration `env:"DB_LOCK_TIMEOUT" envDefault:"5s"`
}

// LedgerConfig holds ledger engine policy
type LedgerConfig struct {
	DepositAccountType string        `env:"LEDGER_DEPOSIT_ACCOUNT_TYPE" envDefault:"Checking"`
	MaxRetries         int           `env:"LEDGER_MAX_RETRIES" envDefault:"3"`
	RetryBackoff       time.Duration `env:"LEDGER_RETRY_BACKOFF" envDefault:"25ms"`
	AccountTypesFile   string        `env:"ACCOUNT_TYPES_FILE"`
}

// AccrualConfig holds interest sweeper settings
type AccrualConfig struct {
	Interval    time.Duration `env:"ACCRUAL_INTERVAL" envDefault:"24h"`
	Concurrency int           `env:"ACCRUAL_CONCURRENCY" envDefault:"4"`
	MetricsAddr string        `env:"METRICS_ADDR" envDefault:":9102"`
}
