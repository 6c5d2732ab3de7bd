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
	"errors"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

// CalculateInterest accrues interest on one of the owner's accounts. An
// account held by someone else is reported as not found.
func (s *LedgerService) CalculateInterest(ctx context.Context, ownerId, accountId int64) (*models.OperationResult, error) {
	account, err := s.store.GetAccount(ctx, accountId)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return failed(err), nil
	}
	if err != nil || account.UserId != ownerId {
		zap.L().Warn("Interest requested for inaccessible account",
			zap.Int64("user_id", ownerId),
			zap.Int64("account_id", accountId))
		return &models.OperationResult{
			ErrorKind: string(ledger.KindAccountNotFound),
			Error:     "Account not found or access denied",
		}, nil
	}

	result, err := s.accrual.AccrueInterest(ctx, accountId)
	if err != nil {
		return failed(err), nil
	}

	operation := &models.OperationResult{
		Success:    true,
		Status:     string(result.Status),
		NewBalance: result.NewBalance,
		Message:    result.Message,
	}
	if result.Entry != nil {
		operation.Reference = result.Entry.Reference
	}
	return operation, nil
}
