package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Receipt describes a committed ledger operation. NewBalance is the balance
// of the account the caller acted on: the source for debits and transfers,
// the destination for deposits.
type Receipt struct {
	EntryId       int64
	Reference     string
	Kind          models.TransactionKind
	Amount        decimal.Decimal
	FromAccountId *int64
	ToAccountId   *int64
	NewBalance    decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

type Engine struct {
	store       store.LedgerStore
	depositType string
	retry       RetryPolicy
	now         func() time.Time
}

type Option func(*Engine)

// WithClock replaces the time source used for entry timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(s store.LedgerStore, cfg models.LedgerConfig, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		depositType: cfg.DepositAccountType,
		retry:       RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DepositAccountType is the account type deposits and withdrawals act on
func (e *Engine) DepositAccountType() string {
	return e.depositType
}

// Deposit credits the owner's deposit account
func (e *Engine) Deposit(ctx context.Context, ownerId int64, amount decimal.Decimal) (*Receipt, error) {
	return e.execute(ctx, "deposit", amount, func(ctx context.Context, tx store.Tx) (*Receipt, error) {
		target, err := tx.AccountByOwnerAndType(ctx, ownerId, e.depositType)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, fmt.Sprintf("%s account not found", e.depositType))
		}

		locked, err := tx.LockAccounts(ctx, target.Id)
		if err != nil {
			return nil, err
		}
		account := locked[target.Id]

		newBalance := account.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       account.Id,
			Balance:         newBalance,
			ExpectedVersion: account.Version,
		}); err != nil {
			return nil, err
		}

		entry, err := tx.AppendEntry(ctx, store.AppendEntryParams{
			Kind:        models.KindDeposit,
			ToAccountId: &account.Id,
			Amount:      amount,
			Description: fmt.Sprintf("Deposit to %s account", account.TypeName),
			CreatedAt:   e.now(),
		})
		if err != nil {
			return nil, err
		}
		return newReceipt(entry, newBalance), nil
	})
}

// Withdraw debits the owner's deposit account, keeping it at or above its minimum balance
func (e *Engine) Withdraw(ctx context.Context, ownerId int64, amount decimal.Decimal) (*Receipt, error) {
	return e.execute(ctx, "withdraw", amount, func(ctx context.Context, tx store.Tx) (*Receipt, error) {
		source, err := tx.AccountByOwnerAndType(ctx, ownerId, e.depositType)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, fmt.Sprintf("%s account not found", e.depositType))
		}

		locked, err := tx.LockAccounts(ctx, source.Id)
		if err != nil {
			return nil, err
		}
		account := locked[source.Id]

		newBalance := account.Balance.Sub(amount)
		if newBalance.LessThan(account.MinimumBalance) {
			return nil, newError(KindInsufficientFunds, fmt.Sprintf("Cannot withdraw: minimum balance for %s is %s",
				account.TypeName, models.FormatAmount(account.MinimumBalance)))
		}

		if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
			AccountId:       account.Id,
			Balance:         newBalance,
			ExpectedVersion: account.Version,
		}); err != nil {
			return nil, err
		}

		entry, err := tx.AppendEntry(ctx, store.AppendEntryParams{
			Kind:          models.KindWithdrawal,
			FromAccountId: &account.Id,
			Amount:        amount,
			Description:   fmt.Sprintf("Withdrawal from %s account", account.TypeName),
			CreatedAt:     e.now(),
		})
		if err != nil {
			return nil, err
		}
		return newReceipt(entry, newBalance), nil
	})
}

// TransferInternal moves funds between two of the owner's own accounts
func (e *Engine) TransferInternal(ctx context.Context, ownerId int64, fromType, toType string, amount decimal.Decimal) (*Receipt, error) {
	return e.execute(ctx, "transfer_internal", amount, func(ctx context.Context, tx store.Tx) (*Receipt, error) {
		if toType == "" {
			return nil, newError(KindAccountNotFound, "Destination account type is required")
		}
		if fromType == toType {
			return nil, newError(KindSameAccountType, "Cannot transfer to the same account type")
		}

		source, err := tx.AccountByOwnerAndType(ctx, ownerId, fromType)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, "Source account not found")
		}
		destination, err := tx.AccountByOwnerAndType(ctx, ownerId, toType)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, "Destination account not found")
		}

		description := fmt.Sprintf("Transfer from %s to %s", fromType, toType)
		return e.transfer(ctx, tx, source.Id, destination.Id, amount, description)
	})
}

// TransferExternal moves funds from one of the owner's accounts to the oldest
// account of the user holding destinationAccountNumber.
func (e *Engine) TransferExternal(ctx context.Context, ownerId int64, fromType string, amount decimal.Decimal, destinationAccountNumber string) (*Receipt, error) {
	return e.execute(ctx, "transfer_external", amount, func(ctx context.Context, tx store.Tx) (*Receipt, error) {
		if destinationAccountNumber == "" {
			return nil, newError(KindRecipientNotFound, "Destination account number is required")
		}

		source, err := tx.AccountByOwnerAndType(ctx, ownerId, fromType)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, "Source account not found")
		}

		owner, err := tx.UserById(ctx, ownerId)
		if err != nil {
			return nil, notFound(err, KindAccountNotFound, "Source account not found")
		}
		if owner.AccountNumber == destinationAccountNumber {
			return nil, newError(KindSelfTransferDenied, "Cannot transfer to your own account number")
		}

		recipient, err := tx.RecipientAccount(ctx, destinationAccountNumber)
		if err != nil {
			return nil, notFound(err, KindRecipientNotFound, "Recipient account not found")
		}

		description := fmt.Sprintf("Transfer to account %s", destinationAccountNumber)
		return e.transfer(ctx, tx, source.Id, recipient.Id, amount, description)
	})
}

// transfer locks both accounts in ascending id order, then debits, credits and
// logs inside the caller's unit of work.
func (e *Engine) transfer(ctx context.Context, tx store.Tx, sourceId, destinationId int64, amount decimal.Decimal, description string) (*Receipt, error) {
	locked, err := tx.LockAccounts(ctx, sourceId, destinationId)
	if err != nil {
		return nil, err
	}
	source, destination := locked[sourceId], locked[destinationId]

	newSourceBalance := source.Balance.Sub(amount)
	if newSourceBalance.LessThan(source.MinimumBalance) {
		return nil, newError(KindInsufficientFunds, fmt.Sprintf("Cannot transfer: minimum balance for %s is %s",
			source.TypeName, models.FormatAmount(source.MinimumBalance)))
	}

	if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
		AccountId:       source.Id,
		Balance:         newSourceBalance,
		ExpectedVersion: source.Version,
	}); err != nil {
		return nil, err
	}
	if err := tx.UpdateBalance(ctx, store.UpdateBalanceParams{
		AccountId:       destination.Id,
		Balance:         destination.Balance.Add(amount),
		ExpectedVersion: destination.Version,
	}); err != nil {
		return nil, err
	}

	entry, err := tx.AppendEntry(ctx, store.AppendEntryParams{
		Kind:          models.KindTransfer,
		FromAccountId: &source.Id,
		ToAccountId:   &destination.Id,
		Amount:        amount,
		Description:   description,
		CreatedAt:     e.now(),
	})
	if err != nil {
		return nil, err
	}
	return newReceipt(entry, newSourceBalance), nil
}

// execute validates the amount, runs unit under the retry policy and records
// the outcome.
func (e *Engine) execute(ctx context.Context, operation string, amount decimal.Decimal, unit func(ctx context.Context, tx store.Tx) (*Receipt, error)) (*Receipt, error) {
	timer := prometheus.NewTimer(operationDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	if err := ValidateAmount(amount); err != nil {
		recordOutcome(operation, err)
		return nil, err
	}

	var receipt *Receipt
	err := RunInUnitOfWork(ctx, e.store, e.retry, operation, func(ctx context.Context, tx store.Tx) error {
		r, err := unit(ctx, tx)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	recordOutcome(operation, err)

	if err != nil {
		ledgerErr := Classify(err)
		if ledgerErr.Kind == KindStorageFailure {
			zap.L().Error("Ledger operation failed",
				zap.String("operation", operation),
				zap.String("amount", amount.String()),
				zap.Bool("retryable", ledgerErr.Retryable),
				zap.Error(err))
		} else {
			zap.L().Info("Ledger operation rejected",
				zap.String("operation", operation),
				zap.String("kind", string(ledgerErr.Kind)),
				zap.String("reason", ledgerErr.Message))
		}
		return nil, ledgerErr
	}

	zap.L().Info("Ledger operation committed",
		zap.String("operation", operation),
		zap.Int64("entry_id", receipt.EntryId),
		zap.String("reference", receipt.Reference),
		zap.String("amount", receipt.Amount.String()),
		zap.String("new_balance", receipt.NewBalance.String()))
	return receipt, nil
}

// ValidateAmount requires a positive amount expressed in whole cents
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return newError(KindInvalidAmount, "Amount must be greater than zero")
	}
	if !amount.Equal(models.RoundAmount(amount)) {
		return newError(KindInvalidAmount, "Amount cannot have more than two decimal places")
	}
	return nil
}

// notFound turns a store miss into a ledger error of kind, passing other errors through
func notFound(err error, kind Kind, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: kind, Message: message, Err: err}
	}
	return err
}

func newReceipt(entry *models.TransactionEntry, newBalance decimal.Decimal) *Receipt {
	return &Receipt{
		EntryId:       entry.Id,
		Reference:     entry.Reference,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		FromAccountId: entry.FromAccountId,
		ToAccountId:   entry.ToAccountId,
		NewBalance:    newBalance,
		Description:   entry.Description,
		CreatedAt:     entry.CreatedAt,
	}
}
