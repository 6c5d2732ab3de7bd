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
	"os"
	"strings"

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/models"

	"go.uber.org/zap"
)

const usage = `usage: ledger <command> --user ACC001 [flags]

commands:
  deposit   --amount 500
  withdraw  --amount 200
  transfer  --from Checking --to-type Savings --amount 100
  transfer  --from Checking --to-account ACC002 --amount 50
  interest  --account-id 2
  history   [--limit 20] [--offset 0]
  accounts
`

type request struct {
	command       string
	accountNumber string
	amount        string
	from          string
	toType        string
	toAccount     string
	accountId     int64
	limit         int
	offset        int
}

func parseRequest(args []string) (*request, error) {
	if len(args) == 0 {
		return nil, errors.New("a command is required")
	}

	req := &request{command: args[0]}
	fs := flag.NewFlagSet(req.command, flag.ContinueOnError)
	fs.StringVar(&req.accountNumber, "user", "", "Customer account number acting on the ledger (required)")
	fs.StringVar(&req.amount, "amount", "", "Amount in dollars")
	fs.StringVar(&req.from, "from", "", "Source account type for transfers")
	fs.StringVar(&req.toType, "to-type", "", "Destination account type for internal transfers")
	fs.StringVar(&req.toAccount, "to-account", "", "Recipient account number for external transfers")
	fs.Int64Var(&req.accountId, "account-id", 0, "Account id for interest calculation")
	fs.IntVar(&req.limit, "limit", 20, "History page size")
	fs.IntVar(&req.offset, "offset", 0, "History offset")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if req.accountNumber == "" {
		return nil, errors.New("--user is required")
	}
	switch req.command {
	case "deposit", "withdraw":
		if req.amount == "" {
			return nil, errors.New("--amount is required")
		}
	case "transfer":
		if req.amount == "" || req.from == "" {
			return nil, errors.New("--amount and --from are required")
		}
		if (req.toType == "") == (req.toAccount == "") {
			return nil, errors.New("exactly one of --to-type or --to-account is required")
		}
	case "interest":
		if req.accountId <= 0 {
			return nil, errors.New("--account-id is required")
		}
	case "history", "accounts":
	default:
		return nil, fmt.Errorf("unknown command %q", req.command)
	}
	return req, nil
}

// transferRequest maps the command line onto the transfer payload
func (r *request) transferRequest() models.TransferRequest {
	if r.toAccount != "" {
		return models.TransferRequest{
			Type:            api.TransferExternal,
			FromAccountType: r.from,
			ToAccountNumber: r.toAccount,
			Amount:          r.amount,
		}
	}
	return models.TransferRequest{
		Type:            api.TransferInternal,
		FromAccountType: r.from,
		ToAccountType:   r.toType,
		Amount:          r.amount,
	}
}

func printResult(result *models.OperationResult) {
	if !result.Success {
		fmt.Printf("✗ %s (%s)\n", result.Error, result.ErrorKind)
		if result.Retryable {
			fmt.Println("  The ledger was busy, the request can be retried")
		}
		return
	}
	fmt.Printf("✓ %s\n", result.Message)
	fmt.Printf("  New balance: %s\n", models.FormatAmount(result.NewBalance))
	if result.Reference != "" {
		fmt.Printf("  Reference:   %s\n", result.Reference)
	}
}

func run(ctx context.Context, service *api.LedgerService, ownerId int64, req *request) (bool, error) {
	var result *models.OperationResult
	var err error

	switch req.command {
	case "deposit":
		result, err = service.Deposit(ctx, ownerId, req.amount)
	case "withdraw":
		result, err = service.Withdraw(ctx, ownerId, req.amount)
	case "transfer":
		result, err = service.Transfer(ctx, ownerId, req.transferRequest())
	case "interest":
		result, err = service.CalculateInterest(ctx, ownerId, req.accountId)
	case "history":
		records, err := service.GetTransactions(ctx, ownerId, req.limit, req.offset)
		if err != nil {
			return false, err
		}
		for _, record := range records {
			fmt.Printf("%s  %-10s %14s  %s\n",
				record.CreatedAt.Format("2006-01-02 15:04:05"), record.Type,
				models.FormatAmount(record.Amount), record.Description)
		}
		return true, nil
	case "accounts":
		accounts, err := service.GetAccountInfo(ctx, ownerId)
		if err != nil {
			return false, err
		}
		for i, account := range accounts {
			item, _ := common.TreePrefix(i == len(accounts)-1)
			fmt.Printf("%s#%-5d %-18s %16s  %s\n", item, account.AccountId, account.AccountType,
				models.FormatAmount(account.Balance), account.Description)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	printResult(result)
	return result.Success, nil
}

func main() {
	req, err := parseRequest(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.Store.GetUserByAccountNumber(ctx, strings.TrimSpace(req.accountNumber))
	if err != nil {
		zap.L().Fatal("Unknown user", zap.String("account_number", req.accountNumber), zap.Error(err))
	}

	ok, err := run(ctx, services.Api, user.Id, req)
	if err != nil {
		zap.L().Fatal("Command failed", zap.String("command", req.command), zap.Error(err))
	}
	if !ok {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
