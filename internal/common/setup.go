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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/database"
	"bank-ledger-go/internal/interest"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/postgres"
	"bank-ledger-go/internal/registry"
	"bank-ledger-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file loaded (%v), using process environment\n", err)
	} else {
		log.Println("Loaded environment variables from .env file")
	}
}

type Services struct {
	Store    store.LedgerStore
	Registry *registry.Registry
	Ledger   *ledger.Engine
	Interest *interest.Engine
	Sweeper  *interest.Sweeper
	Api      *api.LedgerService
}

// InitializeLogger installs a production zap logger at the given level as the global logger
func InitializeLogger(level string) (*zap.Logger, func()) {
	zapConfig := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			log.Printf("Unknown LOG_LEVEL %q, using info\n", level)
		} else {
			zapConfig.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// OpenStore connects the configured backend and brings its schema up to date
func OpenStore(ctx context.Context, cfg models.DatabaseConfig) (store.LedgerStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.NewService(ctx, cfg)
	case config.DriverSQLite, "":
		return database.NewService(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// LoadAccountTypes returns the catalog from typesFile, or the built-in defaults when it is empty
func LoadAccountTypes(typesFile string) ([]models.AccountType, error) {
	if typesFile == "" {
		return registry.Defaults(), nil
	}
	zap.L().Info("Loading account types", zap.String("file", typesFile))
	return registry.LoadFile(typesFile)
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	ledgerStore, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	services, err := buildServices(ctx, ledgerStore, cfg)
	if err != nil {
		ledgerStore.Close()
		return nil, err
	}
	return services, nil
}

func buildServices(ctx context.Context, ledgerStore store.LedgerStore, cfg *models.Config) (*Services, error) {
	defs, err := LoadAccountTypes(cfg.Ledger.AccountTypesFile)
	if err != nil {
		return nil, err
	}

	types := registry.New(ledgerStore)
	added, err := types.Bootstrap(ctx, defs)
	if err != nil {
		return nil, fmt.Errorf("unable to bootstrap account types: %w", err)
	}
	zap.L().Info("Account type catalog ready", zap.Int("added", added))

	if legacy, ok := ledgerStore.(*database.Service); ok {
		imported, err := legacy.ImportLegacyData(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to import legacy data: %w", err)
		}
		if imported > 0 {
			zap.L().Info("Imported legacy ledger", zap.Int("accounts", imported))
		}
	}

	if _, err := types.Get(ctx, cfg.Ledger.DepositAccountType); err != nil {
		return nil, fmt.Errorf("deposit account type %q: %w", cfg.Ledger.DepositAccountType, err)
	}

	ledgerEngine := ledger.NewEngine(ledgerStore, cfg.Ledger)
	interestEngine := interest.NewEngine(ledgerStore, cfg.Ledger)

	return &Services{
		Store:    ledgerStore,
		Registry: types,
		Ledger:   ledgerEngine,
		Interest: interestEngine,
		Sweeper:  interest.NewSweeper(interestEngine, ledgerStore, cfg.Accrual),
		Api:      api.NewLedgerService(ledgerStore, ledgerEngine, interestEngine),
	}, nil
}

func (cs *Services) Close() {
	if cs.Sweeper != nil {
		cs.Sweeper.Stop()
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
