/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"strings"

	"bank-ledger-go/internal/models"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

func Load() (*models.Config, error) {
	var cfg models.Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot start with
func Validate(cfg *models.Config) error {
	var errs []error

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite3 driver"))
		}
	case DriverPostgres:
		if cfg.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver))
	}

	if cfg.Database.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DB_LOCK_TIMEOUT must be positive, got %v", cfg.Database.LockTimeout))
	}
	if cfg.Ledger.DepositAccountType == "" {
		errs = append(errs, errors.New("LEDGER_DEPOSIT_ACCOUNT_TYPE cannot be empty"))
	}
	if cfg.Ledger.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("LEDGER_MAX_RETRIES cannot be negative, got %d", cfg.Ledger.MaxRetries))
	}
	if cfg.Ledger.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("LEDGER_RETRY_BACKOFF cannot be negative, got %v", cfg.Ledger.RetryBackoff))
	}
	if cfg.Accrual.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("ACCRUAL_CONCURRENCY must be positive, got %d", cfg.Accrual.Concurrency))
	}

	return errors.Join(errs...)
}
