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
	"flag"
	"fmt"
	"log"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers    int
	totalAccounts int
	outOfBalance  int
}

func printAccount(account models.Account, isLast bool, reconcileErr error) {
	item, detail := common.TreePrefix(isLast)
	fmt.Printf("%s#%-5d %-18s %16s  (v%d)\n", item, account.Id, account.TypeName,
		models.FormatAmount(account.Balance), account.Version)

	lastInterest := "never"
	if account.LastInterestAt != nil {
		lastInterest = account.LastInterestAt.Format("2006-01-02 15:04:05")
	}
	fmt.Printf("%s rate %s, minimum %s, last interest %s\n", detail,
		common.RenderRate(account.InterestRate), models.FormatAmount(account.MinimumBalance), lastInterest)
	if reconcileErr != nil {
		fmt.Printf("%s OUT OF BALANCE: %v\n", detail, reconcileErr)
	}
}

func printHistory(entries []models.TransactionEntry, accountId int64, limit int) {
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for _, entry := range entries {
		fmt.Printf("│      %s %-10s %14s  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.Kind,
			common.SignedAmount(entry, accountId),
			entry.Description)
	}
}

func processUser(ctx context.Context, user models.User, s store.LedgerStore, reconcile bool, history int) (int, int, error) {
	accounts, err := s.GetAccountsByUser(ctx, user.Id)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get accounts: %w", err)
	}

	fmt.Printf("\n┌─ %s  %s (%s)\n", user.AccountNumber, user.FullName, user.Email)
	if len(accounts) == 0 {
		fmt.Println("└  no accounts")
		return 0, 0, nil
	}

	outOfBalance := 0
	for i, account := range accounts {
		var reconcileErr error
		if reconcile {
			reconcileErr = s.ReconcileAccount(ctx, account.Id)
			if reconcileErr != nil {
				outOfBalance++
			}
		}
		printAccount(account, i == len(accounts)-1, reconcileErr)

		if history > 0 {
			entries, err := s.GetAccountEntries(ctx, account.Id)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to get entries for account %d: %w", account.Id, err)
			}
			printHistory(entries, account.Id, history)
		}
	}
	return len(accounts), outOfBalance, nil
}

func main() {
	ctx := context.Background()

	accountNumberFlag := flag.String("account-number", "", "Filter by customer account number (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Replay each account's entries and flag balance drift")
	historyFlag := flag.Int("history", 0, "Show the last N entries of each account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	logger.Info("Starting balance query")

	// Read-only: no catalog bootstrap or legacy import
	ledgerStore, err := common.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer ledgerStore.Close()

	users, err := common.ResolveUsers(ctx, ledgerStore, *accountNumberFlag)
	if err != nil {
		logger.Fatal("Failed to resolve users", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.WideWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		accountCount, outOfBalance, err := processUser(ctx, user, ledgerStore, *reconcileFlag, *historyFlag)
		if err != nil {
			logger.Error("Failed to process user",
				zap.Int64("user_id", user.Id),
				zap.String("account_number", user.AccountNumber),
				zap.Error(err))
			continue
		}
		stats.totalAccounts += accountCount
		stats.outOfBalance += outOfBalance
	}

	summary := fmt.Sprintf("SUMMARY: %d accounts across %d users", stats.totalAccounts, stats.totalUsers)
	if *reconcileFlag {
		summary += fmt.Sprintf(", %d out of balance", stats.outOfBalance)
	}
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("accounts", stats.totalAccounts),
		zap.Int("out_of_balance", stats.outOfBalance))
}
