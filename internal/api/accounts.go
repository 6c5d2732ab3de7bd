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

package api

import (
	"context"
	"fmt"

	"bank-ledger-go/internal/models"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// GetAccountInfo returns every account the owner holds, oldest first
func (s *LedgerService) GetAccountInfo(ctx context.Context, ownerId int64) ([]models.AccountInfo, error) {
	accounts, err := s.store.GetAccountsByUser(ctx, ownerId)
	if err != nil {
		zap.L().Error("Failed to get accounts", zap.Int64("user_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve accounts")
	}

	types, err := s.store.ListAccountTypes(ctx)
	if err != nil {
		zap.L().Error("Failed to get account types", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve accounts")
	}
	descriptions := make(map[int64]string, len(types))
	for _, accountType := range types {
		descriptions[accountType.Id] = accountType.Description
	}

	result := make([]models.AccountInfo, len(accounts))
	for i, account := range accounts {
		result[i] = models.AccountInfo{
			AccountId:      account.Id,
			AccountType:    account.TypeName,
			Balance:        account.Balance,
			InterestRate:   account.InterestRate,
			MinimumBalance: account.MinimumBalance,
			Description:    descriptions[account.AccountTypeId],
			LastInterestAt: account.LastInterestAt,
			CreatedAt:      account.CreatedAt,
		}
	}
	return result, nil
}

// GetAccountTypes returns the account type catalog
func (s *LedgerService) GetAccountTypes(ctx context.Context) ([]models.AccountTypeInfo, error) {
	types, err := s.store.ListAccountTypes(ctx)
	if err != nil {
		zap.L().Error("Failed to get account types", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve account types")
	}

	result := make([]models.AccountTypeInfo, len(types))
	for i, accountType := range types {
		result[i] = models.AccountTypeInfo{
			Id:             accountType.Id,
			Name:           accountType.Name,
			InterestRate:   accountType.InterestRate,
			MinimumBalance: accountType.MinimumBalance,
			Description:    accountType.Description,
		}
	}
	return result, nil
}

// GetTransactions returns the owner's most recent entries across all accounts
func (s *LedgerService) GetTransactions(ctx context.Context, ownerId int64, limit, offset int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.store.GetTransactionHistory(ctx, ownerId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history",
			zap.Int64("user_id", ownerId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history")
	}

	result := make([]models.TransactionRecord, len(entries))
	for i, entry := range entries {
		result[i] = models.TransactionRecord{
			Id:            entry.Id,
			Reference:     entry.Reference,
			Type:          string(entry.Kind),
			Amount:        entry.Amount,
			FromAccountId: entry.FromAccountId,
			ToAccountId:   entry.ToAccountId,
			Description:   entry.Description,
			CreatedAt:     entry.CreatedAt,
		}
	}
	return result, nil
}
