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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountInfo represents one of the caller's accounts with its type policy
type AccountInfo struct {
	AccountId      int64           `json:"account_id"`
	AccountType    string          `json:"account_type"`
	Balance        decimal.Decimal `json:"balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	Description    string          `json:"description"`
	LastInterestAt *time.Time      `json:"last_interest_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AccountTypeInfo represents a catalog entry for account type pickers
type AccountTypeInfo struct {
	Id             int64           `json:"id"`
	Name           string          `json:"name"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	Description    string          `json:"description"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id            int64           `json:"id"`
	Reference     string          `json:"reference"`
	Type          string          `json:"type"` // DEPOSIT, WITHDRAWAL, TRANSFER, INTEREST
	Amount        decimal.Decimal `json:"amount"`
	FromAccountId *int64          `json:"from_account_id,omitempty"`
	ToAccountId   *int64          `json:"to_account_id,omitempty"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ErrorKindInvalidRequest marks a payload rejected before it reached the ledger
const ErrorKindInvalidRequest = "InvalidRequest"

// OperationResult represents the outcome of a ledger or interest operation for the caller
type OperationResult struct {
	Success    bool            `json:"success"`
	Status     string          `json:"status,omitempty"` // interest accrual status
	NewBalance decimal.Decimal `json:"new_balance"`
	Message    string          `json:"message,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	Retryable  bool            `json:"retryable,omitempty"`
}

// TransferRequest is the typed form of a transfer payload
type TransferRequest struct {
	Type            string `json:"transferType"` // "internal" or "external"
	FromAccountType string `json:"fromAccountType"`
	ToAccountType   string `json:"toAccountType,omitempty"`
	ToAccountNumber string `json:"to_account,omitempty"`
	Amount          string `json:"amount"`
}
