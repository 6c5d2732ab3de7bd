package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bank-ledger-go/internal/database"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/registry"
	"bank-ledger-go/internal/seed"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *database.Service
	engine *ledger.Engine
	john   models.User
	jane   models.User
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	service, err := database.NewService(s.ctx, models.DatabaseConfig{
		Path:         filepath.Join(s.T().TempDir(), "ledger.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 4,
		PingTimeout:  5 * time.Second,
		LockTimeout:  5 * time.Second,
	})
	s.Require().NoError(err)
	s.T().Cleanup(service.Close)
	s.store = service

	_, err = registry.New(service).Bootstrap(s.ctx, registry.Defaults())
	s.Require().NoError(err)

	users, err := seed.Demo(s.ctx, service)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.john, s.jane = users[0], users[1]

	s.engine = ledger.NewEngine(service, ledgerConfig())
}

func ledgerConfig() models.LedgerConfig {
	return models.LedgerConfig{
		DepositAccountType: "Checking",
		MaxRetries:         5,
		RetryBackoff:       time.Millisecond,
	}
}

func (s *EngineTestSuite) account(userId int64, typeName string) models.Account {
	accounts, err := s.store.GetAccountsByUser(s.ctx, userId)
	s.Require().NoError(err)
	for _, account := range accounts {
		if account.TypeName == typeName {
			return account
		}
	}
	s.FailNowf("account missing", "user %d has no %s account", userId, typeName)
	return models.Account{}
}

func (s *EngineTestSuite) balance(userId int64, typeName string) decimal.Decimal {
	return s.account(userId, typeName).Balance
}

func (s *EngineTestSuite) assertDecimal(expected string, actual decimal.Decimal) {
	s.Truef(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (s *EngineTestSuite) assertReconciles() {
	for _, user := range []models.User{s.john, s.jane} {
		accounts, err := s.store.GetAccountsByUser(s.ctx, user.Id)
		s.Require().NoError(err)
		for _, account := range accounts {
			s.NoError(s.store.ReconcileAccount(s.ctx, account.Id), "account %d", account.Id)
		}
	}
}

func (s *EngineTestSuite) TestDeposit() {
	receipt, err := s.engine.Deposit(s.ctx, s.john.Id, decimal.NewFromInt(500))
	s.Require().NoError(err)

	s.assertDecimal("5500", receipt.NewBalance)
	s.assertDecimal("5500", s.balance(s.john.Id, "Checking"))
	s.Equal(models.KindDeposit, receipt.Kind)
	s.Nil(receipt.FromAccountId)
	s.Require().NotNil(receipt.ToAccountId)
	s.Equal(s.account(s.john.Id, "Checking").Id, *receipt.ToAccountId)
	s.NotEmpty(receipt.Reference)
	s.Equal("Deposit to Checking account", receipt.Description)

	entries, err := s.store.GetAccountEntries(s.ctx, *receipt.ToAccountId)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.assertDecimal("500", entries[0].Amount)
	s.assertReconciles()
}

func (s *EngineTestSuite) TestDeposit_NoCheckingAccount() {
	_, err := s.engine.Deposit(s.ctx, s.jane.Id, decimal.NewFromInt(10))
	s.ErrorIs(err, ledger.ErrAccountNotFound)
	s.Equal("Checking account not found", ledger.Classify(err).Message)
}

func (s *EngineTestSuite) TestInvalidAmounts() {
	amounts := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-5),
		decimal.RequireFromString("0.001"),
		decimal.RequireFromString("10.555"),
	}
	for _, amount := range amounts {
		_, err := s.engine.Deposit(s.ctx, s.john.Id, amount)
		s.ErrorIs(err, ledger.ErrInvalidAmount, "deposit %s", amount)
		_, err = s.engine.Withdraw(s.ctx, s.john.Id, amount)
		s.ErrorIs(err, ledger.ErrInvalidAmount, "withdraw %s", amount)
		_, err = s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Savings", amount)
		s.ErrorIs(err, ledger.ErrInvalidAmount, "amount is checked before account types: %s", amount)
		_, err = s.engine.TransferExternal(s.ctx, s.john.Id, "Savings", amount, "ACC404")
		s.ErrorIs(err, ledger.ErrInvalidAmount, "amount is checked before recipient: %s", amount)
	}
	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
}

func (s *EngineTestSuite) TestWithdraw() {
	receipt, err := s.engine.Withdraw(s.ctx, s.john.Id, decimal.RequireFromString("1234.56"))
	s.Require().NoError(err)
	s.assertDecimal("3765.44", receipt.NewBalance)
	s.Equal(models.KindWithdrawal, receipt.Kind)
	s.Nil(receipt.ToAccountId)
	s.assertReconciles()
}

func (s *EngineTestSuite) TestWithdraw_BelowMinimum() {
	users, err := seed.Users(s.ctx, s.store, []seed.DemoUser{{
		AccountNumber: "ACC003",
		FullName:      "Low Balance",
		Email:         "low@example.com",
		Accounts:      []seed.DemoAccount{{AccountType: "Checking", OpeningBalance: decimal.NewFromInt(100)}},
	}})
	s.Require().NoError(err)
	owner := users[0]

	_, err = s.engine.Withdraw(s.ctx, owner.Id, decimal.NewFromInt(200))
	s.Require().ErrorIs(err, ledger.ErrInsufficientFunds)
	s.Equal("Cannot withdraw: minimum balance for Checking is $0.00", ledger.Classify(err).Message)
	s.assertDecimal("100", s.balance(owner.Id, "Checking"))

	// the whole balance may go when the minimum is zero
	receipt, err := s.engine.Withdraw(s.ctx, owner.Id, decimal.NewFromInt(100))
	s.Require().NoError(err)
	s.True(receipt.NewBalance.IsZero())
}

func (s *EngineTestSuite) TestTransferInternal() {
	savings := s.account(s.john.Id, "Savings")
	fixed := s.account(s.john.Id, "Fixed Deposit")

	receipt, err := s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Fixed Deposit", decimal.NewFromInt(1000))
	s.Require().NoError(err)

	s.assertDecimal("9000", s.balance(s.john.Id, "Savings"))
	s.assertDecimal("21000", s.balance(s.john.Id, "Fixed Deposit"))
	s.assertDecimal("9000", receipt.NewBalance)
	s.Equal(models.KindTransfer, receipt.Kind)
	s.Equal(savings.Id, *receipt.FromAccountId)
	s.Equal(fixed.Id, *receipt.ToAccountId)
	s.Equal("Transfer from Savings to Fixed Deposit", receipt.Description)

	before := savings.Balance.Add(fixed.Balance)
	after := s.balance(s.john.Id, "Savings").Add(s.balance(s.john.Id, "Fixed Deposit"))
	s.True(before.Equal(after), "transfer must conserve value")
	s.assertReconciles()
}

func (s *EngineTestSuite) TestTransferInternal_Rejections() {
	_, err := s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Savings", decimal.NewFromInt(1))
	s.ErrorIs(err, ledger.ErrSameAccountType)

	_, err = s.engine.TransferInternal(s.ctx, s.john.Id, "Premium Checking", "Savings", decimal.NewFromInt(1))
	s.ErrorIs(err, ledger.ErrAccountNotFound)
	s.Equal("Source account not found", ledger.Classify(err).Message)

	_, err = s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Premium Checking", decimal.NewFromInt(1))
	s.ErrorIs(err, ledger.ErrAccountNotFound)
	s.Equal("Destination account not found", ledger.Classify(err).Message)

	// Savings keeps at least $100
	_, err = s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Checking", decimal.RequireFromString("9900.01"))
	s.Require().ErrorIs(err, ledger.ErrInsufficientFunds)
	s.Equal("Cannot transfer: minimum balance for Savings is $100.00", ledger.Classify(err).Message)

	_, err = s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Checking", decimal.NewFromInt(9900))
	s.Require().NoError(err)
	s.assertDecimal("100", s.balance(s.john.Id, "Savings"))
	s.assertDecimal("14900", s.balance(s.john.Id, "Checking"))
}

func (s *EngineTestSuite) TestTransferExternal() {
	checking := s.account(s.john.Id, "Checking")
	recipient := s.account(s.jane.Id, "Premium Checking") // Jane's oldest account

	receipt, err := s.engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(250), "ACC002")
	s.Require().NoError(err)

	s.assertDecimal("4750", receipt.NewBalance)
	s.assertDecimal("15250", s.balance(s.jane.Id, "Premium Checking"))
	s.assertDecimal("8000", s.balance(s.jane.Id, "Savings"))
	s.Equal(checking.Id, *receipt.FromAccountId)
	s.Equal(recipient.Id, *receipt.ToAccountId)
	s.Equal("Transfer to account ACC002", receipt.Description)
	s.assertReconciles()
}

func (s *EngineTestSuite) TestTransferExternal_Rejections() {
	_, err := s.engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(50), "ACC001")
	s.ErrorIs(err, ledger.ErrSelfTransferDenied)

	_, err = s.engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(50), "ACC999")
	s.ErrorIs(err, ledger.ErrRecipientNotFound)

	_, err = s.engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(50), "")
	s.ErrorIs(err, ledger.ErrRecipientNotFound)

	_, err = s.engine.TransferExternal(s.ctx, s.john.Id, "Premium Checking", decimal.NewFromInt(50), "ACC002")
	s.ErrorIs(err, ledger.ErrAccountNotFound)

	// Premium Checking must keep $5,000
	_, err = s.engine.TransferExternal(s.ctx, s.jane.Id, "Premium Checking", decimal.NewFromInt(10001), "ACC001")
	s.Require().ErrorIs(err, ledger.ErrInsufficientFunds)
	s.Equal("Cannot transfer: minimum balance for Premium Checking is $5,000.00", ledger.Classify(err).Message)

	s.assertDecimal("15000", s.balance(s.jane.Id, "Premium Checking"))
	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
	s.assertReconciles()
}

func (s *EngineTestSuite) TestTransferExternal_RecipientWithoutAccounts() {
	_, err := seed.Users(s.ctx, s.store, []seed.DemoUser{{
		AccountNumber: "ACC003",
		FullName:      "No Accounts",
		Email:         "empty@example.com",
	}})
	s.Require().NoError(err)

	_, err = s.engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(50), "ACC003")
	s.Require().ErrorIs(err, ledger.ErrRecipientNotFound)

	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
	s.assertDecimal("15000", s.balance(s.jane.Id, "Premium Checking"))
	s.assertReconciles()
}

func (s *EngineTestSuite) TestDepositAccountTypeFromConfig() {
	cfg := ledgerConfig()
	cfg.DepositAccountType = "Savings"
	engine := ledger.NewEngine(s.store, cfg)
	s.Equal("Savings", engine.DepositAccountType())

	receipt, err := engine.Deposit(s.ctx, s.john.Id, decimal.NewFromInt(10))
	s.Require().NoError(err)
	s.assertDecimal("10010", receipt.NewBalance)
	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
}

// faultyStore fails the nth balance update of every unit of work
type faultyStore struct {
	store.LedgerStore
	failOnUpdate int
	err          error
}

func (f *faultyStore) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return f.LedgerStore.WithinUnitOfWork(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, failOnUpdate: f.failOnUpdate, err: f.err})
	})
}

type faultyTx struct {
	store.Tx
	failOnUpdate int
	updates      int
	err          error
}

func (f *faultyTx) UpdateBalance(ctx context.Context, params store.UpdateBalanceParams) error {
	f.updates++
	if f.updates == f.failOnUpdate {
		return f.err
	}
	return f.Tx.UpdateBalance(ctx, params)
}

func (s *EngineTestSuite) TestTransfer_FaultAfterDebitRollsBack() {
	injected := errors.New("simulated disk fault")
	engine := ledger.NewEngine(&faultyStore{LedgerStore: s.store, failOnUpdate: 2, err: injected}, ledgerConfig())

	savings := s.account(s.john.Id, "Savings")
	_, err := engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Fixed Deposit", decimal.NewFromInt(1000))
	s.Require().ErrorIs(err, ledger.ErrStorageFailure)
	s.ErrorIs(err, injected)
	s.False(ledger.Classify(err).Retryable)

	s.assertDecimal("10000", s.balance(s.john.Id, "Savings"))
	s.assertDecimal("20000", s.balance(s.john.Id, "Fixed Deposit"))
	entries, err := s.store.GetAccountEntries(s.ctx, savings.Id)
	s.Require().NoError(err)
	s.Empty(entries)

	_, err = engine.TransferExternal(s.ctx, s.john.Id, "Checking", decimal.NewFromInt(10), "ACC002")
	s.Require().ErrorIs(err, ledger.ErrStorageFailure)
	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
	s.assertDecimal("15000", s.balance(s.jane.Id, "Premium Checking"))
	s.assertReconciles()
}

// conflictingStore reports a lost optimistic race for the first n units of work
type conflictingStore struct {
	store.LedgerStore
	conflicts atomic.Int32
}

func (c *conflictingStore) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if c.conflicts.Add(-1) >= 0 {
		return store.ErrConcurrentModification
	}
	return c.LedgerStore.WithinUnitOfWork(ctx, fn)
}

func (s *EngineTestSuite) TestRetryOnConflict() {
	conflicting := &conflictingStore{LedgerStore: s.store}
	conflicting.conflicts.Store(2)
	engine := ledger.NewEngine(conflicting, ledgerConfig())

	receipt, err := engine.Deposit(s.ctx, s.john.Id, decimal.NewFromInt(1))
	s.Require().NoError(err)
	s.assertDecimal("5001", receipt.NewBalance)
}

func (s *EngineTestSuite) TestRetryExhausted() {
	conflicting := &conflictingStore{LedgerStore: s.store}
	conflicting.conflicts.Store(100)
	cfg := ledgerConfig()
	cfg.MaxRetries = 2
	engine := ledger.NewEngine(conflicting, cfg)

	_, err := engine.Deposit(s.ctx, s.john.Id, decimal.NewFromInt(1))
	s.Require().ErrorIs(err, ledger.ErrStorageFailure)
	s.True(ledger.Classify(err).Retryable)
	s.ErrorIs(err, store.ErrConcurrentModification)
	s.assertDecimal("5000", s.balance(s.john.Id, "Checking"))
}

func (s *EngineTestSuite) TestConcurrentOperationsConserveValue() {
	totalBefore := s.balance(s.john.Id, "Savings").
		Add(s.balance(s.john.Id, "Fixed Deposit")).
		Add(s.balance(s.john.Id, "Checking"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := s.engine.TransferInternal(s.ctx, s.john.Id, "Savings", "Fixed Deposit", decimal.NewFromInt(10))
			s.NoError(err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.engine.TransferInternal(s.ctx, s.john.Id, "Fixed Deposit", "Checking", decimal.NewFromInt(7))
			s.NoError(err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.engine.TransferInternal(s.ctx, s.john.Id, "Checking", "Savings", decimal.NewFromInt(3))
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.assertDecimal("9930", s.balance(s.john.Id, "Savings"))
	s.assertDecimal("20030", s.balance(s.john.Id, "Fixed Deposit"))
	s.assertDecimal("5040", s.balance(s.john.Id, "Checking"))

	totalAfter := s.balance(s.john.Id, "Savings").
		Add(s.balance(s.john.Id, "Fixed Deposit")).
		Add(s.balance(s.john.Id, "Checking"))
	s.True(totalBefore.Equal(totalAfter))
	s.assertReconciles()
}

func (s *EngineTestSuite) TestConcurrentWithdrawalsRespectMinimum() {
	// $5,000 in Checking, 60 concurrent $100 withdrawals: exactly 50 can succeed
	var wg sync.WaitGroup
	var succeeded, refused atomic.Int32
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.engine.Withdraw(s.ctx, s.john.Id, decimal.NewFromInt(100))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ledger.ErrInsufficientFunds):
				refused.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(50), succeeded.Load())
	s.Equal(int32(10), refused.Load())
	s.True(s.balance(s.john.Id, "Checking").IsZero())
	s.assertReconciles()
}
