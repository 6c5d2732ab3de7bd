package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestService connects to LEDGER_TEST_POSTGRES_URL and empties every table
func setupTestService(t *testing.T) *Service {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	service, err := NewService(ctx, models.DatabaseConfig{
		Driver:       "postgres",
		URL:          url,
		MaxOpenConns: 8,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		LockTimeout:  500 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(service.Close)

	_, err = service.pool.Exec(ctx, `TRUNCATE transactions, accounts, users, account_types RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	for _, def := range []models.AccountType{
		{Name: "Checking", InterestRate: decimal.Zero, MinimumBalance: decimal.Zero},
		{Name: "Savings", InterestRate: decimal.RequireFromString("2.5"), MinimumBalance: decimal.NewFromInt(100)},
	} {
		_, err := service.EnsureAccountType(ctx, def)
		require.NoError(t, err)
	}
	return service
}

func openTestAccount(t *testing.T, s *Service, accountNumber, typeName string, opening int64) *models.Account {
	t.Helper()
	ctx := context.Background()
	user, err := s.GetUserByAccountNumber(ctx, accountNumber)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.CreateUser(ctx, store.CreateUserParams{
			AccountNumber: accountNumber,
			FullName:      "Test " + accountNumber,
			Email:         accountNumber + "@example.com",
		})
	}
	require.NoError(t, err)

	account, err := s.OpenAccount(ctx, store.OpenAccountParams{
		UserId:         user.Id,
		AccountType:    typeName,
		OpeningBalance: decimal.NewFromInt(opening),
	})
	require.NoError(t, err)
	return account
}

func credit(ctx context.Context, s *Service, accountId int64, amount decimal.Decimal) error {
	return s.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.LockAccounts(ctx, accountId)
		if err != nil {
			return err
		}
		account := locked[accountId]
		if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       accountId,
			Balance:         account.Balance.Add(amount),
			ExpectedVersion: account.Version,
		}); err != nil {
			return err
		}
		_, err = tx.AppendEntry(ctx, store.AppendEntryParams{
			Kind:        models.KindDeposit,
			ToAccountId: &accountId,
			Amount:      amount,
			Description: "Deposit to Checking account",
			CreatedAt:   time.Now(),
		})
		return err
	})
}

func TestAccountRoundTrip(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	account := openTestAccount(t, s, "ACC100", "Savings", 1000)
	assert.Equal(t, "Savings", account.TypeName)
	assert.True(t, decimal.RequireFromString("2.5").Equal(account.InterestRate))
	assert.True(t, decimal.NewFromInt(1000).Equal(account.Balance))
	assert.True(t, account.OpeningBalance.Equal(account.Balance))
	assert.Nil(t, account.LastInterestAt)

	added, err := s.EnsureAccountType(ctx, models.AccountType{Name: "Savings", InterestRate: decimal.NewFromInt(9)})
	require.NoError(t, err)
	assert.False(t, added)

	ids, err := s.ListInterestBearingAccountIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{account.Id}, ids)

	_, err = s.GetAccount(ctx, 424242)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateUser(ctx, store.CreateUserParams{AccountNumber: "ACC100", FullName: "Dup", Email: "dup@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUnitOfWorkCommitAndRollback(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	account := openTestAccount(t, s, "ACC200", "Checking", 100)

	require.NoError(t, credit(ctx, s, account.Id, decimal.RequireFromString("25.50")))

	boom := errors.New("boom")
	err := s.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.LockAccounts(ctx, account.Id)
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       account.Id,
			Balance:         decimal.NewFromInt(999999),
			ExpectedVersion: locked[account.Id].Version,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := s.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("126.50").Equal(stored.Balance), stored.Balance.String())
	assert.NoError(t, s.ReconcileAccount(ctx, account.Id))

	entries, err := s.GetAccountEntries(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Reference)
}

func TestStaleVersionIsConcurrentModification(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	account := openTestAccount(t, s, "ACC300", "Checking", 10)

	err := s.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       account.Id,
			Balance:         decimal.NewFromInt(20),
			ExpectedVersion: account.Version + 5,
		})
	})
	assert.ErrorIs(t, err, store.ErrConcurrentModification)
	assert.True(t, store.IsRetryable(err))
}

func TestLockTimeout(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	account := openTestAccount(t, s, "ACC400", "Checking", 10)

	holding := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.LockAccounts(ctx, account.Id); err != nil {
				return err
			}
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	err := s.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.LockAccounts(ctx, account.Id)
		return err
	})
	close(release)
	wg.Wait()

	assert.ErrorIs(t, err, store.ErrLockTimeout)
}

func TestConcurrentCredits(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	account := openTestAccount(t, s, "ACC500", "Checking", 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, credit(ctx, s, account.Id, decimal.NewFromInt(5)))
		}()
	}
	wg.Wait()

	stored, err := s.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Balance), stored.Balance.String())
	assert.NoError(t, s.ReconcileAccount(ctx, account.Id))
}
