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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"regexp"
	"strings"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type accountRequest struct {
	accountType    string
	openingBalance decimal.Decimal
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

// parseAccounts reads "Checking=500,Savings" into account requests. A missing
// amount opens the account empty.
func parseAccounts(value string) ([]accountRequest, error) {
	var requests []accountRequest
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, amount, hasAmount := strings.Cut(part, "=")
		request := accountRequest{accountType: strings.TrimSpace(name), openingBalance: decimal.Zero}
		if hasAmount {
			parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil || parsed.IsNegative() {
				return nil, fmt.Errorf("invalid opening balance %q for %s", amount, request.accountType)
			}
			request.openingBalance = parsed
		}
		requests = append(requests, request)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("at least one account is required")
	}
	return requests, nil
}

func main() {
	ctx := context.Background()

	accountNumberFlag := flag.String("account-number", "", "Customer account number, e.g. ACC003 (required)")
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	accountsFlag := flag.String("accounts", "Checking", "Accounts to open as Type[=opening balance], comma separated")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	if *accountNumberFlag == "" || *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("All flags are required: --account-number, --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	requests, err := parseAccounts(*accountsFlag)
	if err != nil {
		zap.L().Fatal("Invalid accounts", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	// Fail before creating the user if any requested type is unknown
	for _, request := range requests {
		if _, err := services.Registry.Get(ctx, request.accountType); err != nil {
			zap.L().Fatal("Unknown account type", zap.String("account_type", request.accountType), zap.Error(err))
		}
	}

	user, err := services.Store.CreateUser(ctx, store.CreateUserParams{
		AccountNumber: *accountNumberFlag,
		FullName:      strings.TrimSpace(*nameFlag),
		Email:         *emailFlag,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			zap.L().Fatal("User already exists with this account number or email",
				zap.String("account_number", *accountNumberFlag),
				zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("Account Number: %s\n", user.AccountNumber)
	fmt.Printf("Name:           %s\n", user.FullName)
	fmt.Printf("Email:          %s\n", user.Email)

	var failed []string
	for i, request := range requests {
		item, _ := common.TreePrefix(i == len(requests)-1)
		account, err := services.Store.OpenAccount(ctx, store.OpenAccountParams{
			UserId:         user.Id,
			AccountType:    request.accountType,
			OpeningBalance: request.openingBalance,
		})
		if err != nil {
			zap.L().Error("Failed to open account",
				zap.String("account_type", request.accountType),
				zap.Error(err))
			failed = append(failed, request.accountType)
			fmt.Printf("%s%-18s failed\n", item, request.accountType)
			continue
		}
		fmt.Printf("%s%-18s #%d  %s\n", item, account.TypeName, account.Id, account.Balance.StringFixed(2))
	}

	if len(failed) > 0 {
		common.PrintFooter("User created but some accounts failed to open: "+strings.Join(failed, ", "), common.DefaultWidth)
		return
	}
	common.PrintFooter("User and all accounts created successfully", common.DefaultWidth)
}
