package interest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Status is the outcome of one accrual call. Every status is a success.
type Status string

const (
	StatusCredited           Status = "Credited"
	StatusNotInterestBearing Status = "NotInterestBearing"
	StatusAlreadyCredited    Status = "AlreadyCredited"
	StatusNothingAccrued     Status = "NothingAccrued"
)

const (
	daysPerYear = 365
	day         = 24 * time.Hour
)

type Result struct {
	AccountId  int64
	Status     Status
	Amount     decimal.Decimal
	Formatted  string // two decimals, no symbol
	Message    string
	Days       int
	NewBalance decimal.Decimal
	Entry      *models.TransactionEntry
}

type Engine struct {
	store store.LedgerStore
	retry ledger.RetryPolicy
	now   func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(s store.LedgerStore, cfg models.LedgerConfig, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		retry: ledger.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ElapsedDays counts whole days from baseline to now; negative spans count as zero
func ElapsedDays(baseline, now time.Time) int {
	elapsed := now.Sub(baseline)
	if elapsed < day {
		return 0
	}
	return int(elapsed / day)
}

// Compute returns simple interest on balance at annualRate percent for days,
// rounded to cents.
func Compute(balance, annualRate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !annualRate.IsPositive() {
		return decimal.Zero
	}
	return models.RoundAmount(
		balance.Mul(annualRate).Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(daysPerYear * 100)))
}

// AccrueInterest credits interest earned since the account last accrued. It
// applies at most once per elapsed day; repeated calls within a day are no-ops.
func (e *Engine) AccrueInterest(ctx context.Context, accountId int64) (*Result, error) {
	var result *Result
	err := ledger.RunInUnitOfWork(ctx, e.store, e.retry, "accrue_interest", func(ctx context.Context, tx store.Tx) error {
		r, err := e.accrue(ctx, tx, accountId)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		ledgerErr := ledger.Classify(err)
		accrualsTotal.WithLabelValues(string(ledgerErr.Kind)).Inc()
		zap.L().Error("Interest accrual failed",
			zap.Int64("account_id", accountId),
			zap.String("kind", string(ledgerErr.Kind)),
			zap.Error(err))
		return nil, ledgerErr
	}

	accrualsTotal.WithLabelValues(string(result.Status)).Inc()
	if result.Status == StatusCredited {
		creditedTotal.Add(result.Amount.InexactFloat64())
		zap.L().Info("Interest credited",
			zap.Int64("account_id", accountId),
			zap.String("amount", result.Formatted),
			zap.Int("days", result.Days),
			zap.String("new_balance", result.NewBalance.String()))
	} else {
		zap.L().Debug("Interest accrual skipped",
			zap.Int64("account_id", accountId),
			zap.String("status", string(result.Status)))
	}
	return result, nil
}

func (e *Engine) accrue(ctx context.Context, tx store.Tx, accountId int64) (*Result, error) {
	locked, err := tx.LockAccounts(ctx, accountId)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ledger.Error{Kind: ledger.KindAccountNotFound, Message: "Account not found", Err: err}
	}
	if err != nil {
		return nil, err
	}
	account := locked[accountId]

	result := &Result{
		AccountId:  accountId,
		Amount:     decimal.Zero,
		Formatted:  models.FixedAmount(decimal.Zero),
		NewBalance: account.Balance,
	}

	if !account.InterestRate.IsPositive() {
		result.Status = StatusNotInterestBearing
		result.Message = "Account type does not earn interest"
		return result, nil
	}

	now := e.now()
	result.Days = ElapsedDays(account.AccrualBaseline(), now)
	if result.Days < 1 {
		result.Status = StatusAlreadyCredited
		result.Message = "Interest already calculated today"
		return result, nil
	}

	amount := Compute(account.Balance, account.InterestRate, result.Days)
	if !amount.IsPositive() {
		// the elapsed days are consumed even though they earned nothing
		if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       account.Id,
			Balance:         account.Balance,
			ExpectedVersion: account.Version,
			InterestAt:      &now,
		}); err != nil {
			return nil, err
		}
		result.Status = StatusNothingAccrued
		result.Message = "No interest accrued"
		return result, nil
	}

	newBalance := account.Balance.Add(amount)
	if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
		AccountId:       account.Id,
		Balance:         newBalance,
		ExpectedVersion: account.Version,
		InterestAt:      &now,
	}); err != nil {
		return nil, err
	}

	entry, err := tx.AppendEntry(ctx, store.AppendEntryParams{
		Kind:        models.KindInterest,
		ToAccountId: &account.Id,
		Amount:      amount,
		Description: fmt.Sprintf("Interest credit for %s account", account.TypeName),
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	result.Status = StatusCredited
	result.Amount = amount
	result.Formatted = models.FixedAmount(amount)
	result.Message = fmt.Sprintf("Interest of $%s credited successfully", result.Formatted)
	result.NewBalance = newBalance
	result.Entry = entry
	return result, nil
}
