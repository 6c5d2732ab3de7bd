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
	"fmt"
	"strings"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TransferInternal = "internal"
	TransferExternal = "external"
)

// Deposit credits the owner's checking account
func (s *LedgerService) Deposit(ctx context.Context, ownerId int64, amountText string) (*models.OperationResult, error) {
	amount, failure := parseAmount(amountText)
	if failure != nil {
		return failure, nil
	}

	receipt, err := s.engine.Deposit(ctx, ownerId, amount)
	if err != nil {
		return failed(err), nil
	}

	return &models.OperationResult{
		Success:    true,
		NewBalance: receipt.NewBalance,
		Reference:  receipt.Reference,
		Message: fmt.Sprintf("Successfully deposited %s to %s account",
			models.FormatAmount(amount), s.engine.DepositAccountType()),
	}, nil
}

// Withdraw debits the owner's checking account
func (s *LedgerService) Withdraw(ctx context.Context, ownerId int64, amountText string) (*models.OperationResult, error) {
	amount, failure := parseAmount(amountText)
	if failure != nil {
		return failure, nil
	}

	receipt, err := s.engine.Withdraw(ctx, ownerId, amount)
	if err != nil {
		return failed(err), nil
	}

	return &models.OperationResult{
		Success:    true,
		NewBalance: receipt.NewBalance,
		Reference:  receipt.Reference,
		Message: fmt.Sprintf("Successfully withdrew %s from %s account",
			models.FormatAmount(amount), s.engine.DepositAccountType()),
	}, nil
}

// Transfer dispatches an internal or external transfer request
func (s *LedgerService) Transfer(ctx context.Context, ownerId int64, req models.TransferRequest) (*models.OperationResult, error) {
	if strings.TrimSpace(req.Amount) == "" || req.Type == "" || req.FromAccountType == "" {
		return invalidRequest("Amount, transfer type, and source account type are required"), nil
	}

	amount, failure := parseAmount(req.Amount)
	if failure != nil {
		return failure, nil
	}

	var receipt *ledger.Receipt
	var err error
	switch req.Type {
	case TransferInternal:
		receipt, err = s.engine.TransferInternal(ctx, ownerId, req.FromAccountType, req.ToAccountType, amount)
	case TransferExternal:
		receipt, err = s.engine.TransferExternal(ctx, ownerId, req.FromAccountType, amount, strings.TrimSpace(req.ToAccountNumber))
	default:
		return invalidRequest(fmt.Sprintf("Unknown transfer type %q", req.Type)), nil
	}
	if err != nil {
		return failed(err), nil
	}

	return &models.OperationResult{
		Success:    true,
		NewBalance: receipt.NewBalance,
		Reference:  receipt.Reference,
		Message:    fmt.Sprintf("Successfully transferred %s. %s", models.FormatAmount(amount), receipt.Description),
	}, nil
}

func parseAmount(text string) (decimal.Decimal, *models.OperationResult) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, &models.OperationResult{
			ErrorKind: string(ledger.KindInvalidAmount),
			Error:     "Invalid amount format",
		}
	}
	return amount, nil
}

func invalidRequest(message string) *models.OperationResult {
	return &models.OperationResult{
		ErrorKind: models.ErrorKindInvalidRequest,
		Error:     message,
	}
}

// failed converts an engine error into a caller-facing result. Storage
// details stay in the log.
func failed(err error) *models.OperationResult {
	ledgerErr := ledger.Classify(err)
	message := ledgerErr.Message
	if errors.Is(err, ledger.ErrStorageFailure) {
		zap.L().Error("Operation failed in storage", zap.Error(err))
		message = "The operation could not be completed, please try again"
	}
	return &models.OperationResult{
		ErrorKind: string(ledgerErr.Kind),
		Error:     message,
		Retryable: ledgerErr.Retryable,
	}
}
