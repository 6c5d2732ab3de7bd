package seed

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DemoAccount struct {
	AccountType    string
	OpeningBalance decimal.Decimal
}

type DemoUser struct {
	AccountNumber string
	FullName      string
	Email         string
	Accounts      []DemoAccount
}

// DemoUsers returns the sample customers created by setup -demo
func DemoUsers() []DemoUser {
	return []DemoUser{
		{
			AccountNumber: "ACC001",
			FullName:      "John Doe",
			Email:         "john@example.com",
			Accounts: []DemoAccount{
				{AccountType: "Checking", OpeningBalance: decimal.NewFromInt(5000)},
				{AccountType: "Savings", OpeningBalance: decimal.NewFromInt(10000)},
				{AccountType: "Fixed Deposit", OpeningBalance: decimal.NewFromInt(20000)},
			},
		},
		{
			AccountNumber: "ACC002",
			FullName:      "Jane Smith",
			Email:         "jane@example.com",
			Accounts: []DemoAccount{
				{AccountType: "Premium Checking", OpeningBalance: decimal.NewFromInt(15000)},
				{AccountType: "Savings", OpeningBalance: decimal.NewFromInt(8000)},
			},
		},
	}
}

// Users creates each user that does not exist yet, with its accounts opened
// in the listed order. Existing users are returned untouched.
func Users(ctx context.Context, s store.LedgerStore, users []DemoUser) ([]models.User, error) {
	created := make([]models.User, 0, len(users))
	for _, demo := range users {
		existing, err := s.GetUserByAccountNumber(ctx, demo.AccountNumber)
		if err == nil {
			zap.L().Info("Demo user already exists", zap.String("account_number", demo.AccountNumber))
			created = append(created, *existing)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		user, err := s.CreateUser(ctx, store.CreateUserParams{
			AccountNumber: demo.AccountNumber,
			FullName:      demo.FullName,
			Email:         demo.Email,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create demo user %s: %w", demo.AccountNumber, err)
		}

		for _, account := range demo.Accounts {
			if _, err := s.OpenAccount(ctx, store.OpenAccountParams{
				UserId:         user.Id,
				AccountType:    account.AccountType,
				OpeningBalance: account.OpeningBalance,
			}); err != nil {
				return nil, fmt.Errorf("unable to open %s account for %s: %w", account.AccountType, demo.AccountNumber, err)
			}
		}
		created = append(created, *user)
	}
	return created, nil
}

// Demo creates the sample customers
func Demo(ctx context.Context, s store.LedgerStore) ([]models.User, error) {
	return Users(ctx, s, DemoUsers())
}
