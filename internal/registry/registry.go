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

package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

var ErrUnknownAccountType = errors.New("unknown account type")

type AccountTypeConfig struct {
	Name           string `yaml:"name"`
	InterestRate   string `yaml:"interest_rate"`
	MinimumBalance string `yaml:"minimum_balance"`
	Description    string `yaml:"description"`
}

type AccountTypesConfig struct {
	AccountTypes []AccountTypeConfig `yaml:"account_types"`
}

// Defaults returns the seed catalog
func Defaults() []models.AccountType {
	return []models.AccountType{
		{
			Name:           "Checking",
			InterestRate:   decimal.Zero,
			MinimumBalance: decimal.Zero,
			Description:    "Basic checking account with no minimum balance",
		},
		{
			Name:           "Savings",
			InterestRate:   decimal.RequireFromString("2.5"),
			MinimumBalance: decimal.NewFromInt(100),
			Description:    "Savings account with 2.5% annual interest rate",
		},
		{
			Name:           "Fixed Deposit",
			InterestRate:   decimal.NewFromInt(5),
			MinimumBalance: decimal.NewFromInt(1000),
			Description:    "Fixed deposit account with 5% annual interest rate",
		},
		{
			Name:           "Premium Checking",
			InterestRate:   decimal.RequireFromString("0.5"),
			MinimumBalance: decimal.NewFromInt(5000),
			Description:    "Premium checking account with 0.5% interest rate",
		},
	}
}

func LoadFile(typesFile string) ([]models.AccountType, error) {
	var typesPath string
	if filepath.IsAbs(typesFile) {
		typesPath = typesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		typesPath = filepath.Join(wd, typesFile)
	}

	data, err := os.ReadFile(typesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", typesFile, err)
	}

	var config AccountTypesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", typesFile, err)
	}
	if len(config.AccountTypes) == 0 {
		return nil, fmt.Errorf("%s defines no account types", typesFile)
	}

	seen := make(map[string]bool, len(config.AccountTypes))
	defs := make([]models.AccountType, 0, len(config.AccountTypes))
	for i, entry := range config.AccountTypes {
		def, err := entry.toAccountType()
		if err != nil {
			return nil, fmt.Errorf("account type at index %d: %w", i, err)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("account type at index %d: duplicate name %q", i, def.Name)
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}

	return defs, nil
}

func (c AccountTypeConfig) toAccountType() (models.AccountType, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return models.AccountType{}, fmt.Errorf("missing name")
	}

	rate := decimal.Zero
	if c.InterestRate != "" {
		parsed, err := decimal.NewFromString(c.InterestRate)
		if err != nil {
			return models.AccountType{}, fmt.Errorf("invalid interest_rate %q for %s: %w", c.InterestRate, name, err)
		}
		rate = parsed
	}
	if rate.IsNegative() {
		return models.AccountType{}, fmt.Errorf("interest_rate for %s cannot be negative", name)
	}

	minimum := decimal.Zero
	if c.MinimumBalance != "" {
		parsed, err := decimal.NewFromString(c.MinimumBalance)
		if err != nil {
			return models.AccountType{}, fmt.Errorf("invalid minimum_balance %q for %s: %w", c.MinimumBalance, name, err)
		}
		minimum = parsed
	}
	if minimum.IsNegative() {
		return models.AccountType{}, fmt.Errorf("minimum_balance for %s cannot be negative", name)
	}

	return models.AccountType{
		Name:           name,
		InterestRate:   rate,
		MinimumBalance: models.RoundAmount(minimum),
		Description:    c.Description,
	}, nil
}

// Registry is the read side of the account type catalog
type Registry struct {
	store store.LedgerStore
}

func New(s store.LedgerStore) *Registry {
	return &Registry{store: s}
}

// Bootstrap inserts each definition whose name is not yet present and
// returns how many were added. Existing types are never modified.
func (r *Registry) Bootstrap(ctx context.Context, defs []models.AccountType) (int, error) {
	added := 0
	for _, def := range defs {
		inserted, err := r.store.EnsureAccountType(ctx, def)
		if err != nil {
			return added, fmt.Errorf("unable to seed account type %s: %w", def.Name, err)
		}
		if inserted {
			added++
			zap.L().Info("Seeded account type",
				zap.String("name", def.Name),
				zap.String("interest_rate", def.InterestRate.String()),
				zap.String("minimum_balance", models.FixedAmount(def.MinimumBalance)))
		}
	}

	zap.L().Debug("Account type catalog bootstrapped",
		zap.Int("definitions", len(defs)),
		zap.Int("added", added))
	return added, nil
}

func (r *Registry) List(ctx context.Context) ([]models.AccountType, error) {
	return r.store.ListAccountTypes(ctx)
}

func (r *Registry) Get(ctx context.Context, name string) (*models.AccountType, error) {
	accountType, err := r.store.GetAccountType(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccountType, name)
	}
	return accountType, err
}
