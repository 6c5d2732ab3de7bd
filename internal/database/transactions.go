package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// unitOfWork implements store.Tx over one BEGIN IMMEDIATE transaction. The
// writer lock is already held when it is created, so reads inside it are
// authoritative.
type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) AccountByOwnerAndType(ctx context.Context, ownerId int64, typeName string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRowContext(ctx, queryGetAccountByOwnerAndType, ownerId, typeName))
	if err != nil {
		return nil, fmt.Errorf("unable to find %s account for user %d: %w", typeName, ownerId, classifyError(err))
	}
	return account, nil
}

func (u *unitOfWork) AccountById(ctx context.Context, accountId int64) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRowContext(ctx, queryGetAccount, accountId))
	if err != nil {
		return nil, fmt.Errorf("unable to find account %d: %w", accountId, classifyError(err))
	}
	return account, nil
}

func (u *unitOfWork) LockAccounts(ctx context.Context, accountIds ...int64) (map[int64]*models.Account, error) {
	ids := uniqueSorted(accountIds)
	if len(ids) == 0 {
		return map[int64]*models.Account{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := selectAccount + " WHERE a.id IN (" + placeholders + ") ORDER BY a.id"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := u.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to lock accounts: %w", classifyError(err))
	}
	defer closeRows(rows)

	locked := make(map[int64]*models.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan locked account: %w", err)
		}
		locked[account.Id] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked accounts: %w", classifyError(err))
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("account %d: %w", id, store.ErrNotFound)
		}
	}
	return locked, nil
}

func (u *unitOfWork) RecipientAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRowContext(ctx, queryGetRecipientAccount, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("unable to find account for %s: %w", accountNumber, classifyError(err))
	}
	return account, nil
}

func (u *unitOfWork) UserById(ctx context.Context, userId int64) (*models.User, error) {
	user, err := scanUser(u.tx.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		return nil, fmt.Errorf("unable to get user %d: %w", userId, classifyError(err))
	}
	return user, nil
}

func (u *unitOfWork) UpdateBalance(ctx context.Context, params store.UpdateBalanceParams) error {
	var interestAt any
	if params.InterestAt != nil {
		interestAt = formatTime(*params.InterestAt)
	}

	// Update account balance (with optimistic locking)
	result, err := u.tx.ExecContext(ctx, queryUpdateAccountBalance,
		models.FixedAmount(params.Balance), interestAt, params.AccountId, params.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", classifyError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("balance update for account %d failed - %w", params.AccountId, store.ErrConcurrentModification)
	}
	return nil
}

func (u *unitOfWork) AppendEntry(ctx context.Context, params store.AppendEntryParams) (*models.TransactionEntry, error) {
	if err := params.Kind.Validate(params.FromAccountId, params.ToAccountId); err != nil {
		return nil, err
	}
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("entry amount must be positive, got %s", params.Amount)
	}

	entry := &models.TransactionEntry{
		Reference:     uuid.New().String(),
		FromAccountId: params.FromAccountId,
		ToAccountId:   params.ToAccountId,
		Kind:          params.Kind,
		Amount:        models.RoundAmount(params.Amount),
		Description:   params.Description,
		CreatedAt:     params.CreatedAt.UTC(),
	}

	result, err := u.tx.ExecContext(ctx, queryInsertTransaction,
		entry.Reference, entry.FromAccountId, entry.ToAccountId, string(entry.Kind),
		models.FixedAmount(entry.Amount), entry.Description, formatTime(entry.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", classifyError(err))
	}
	if entry.Id, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read transaction id: %w", err)
	}
	return entry, nil
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.TransactionEntry, error) {
	zap.L().Debug("Querying transaction history",
		zap.Int64("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query transaction history: %w", err)
	}
	defer closeRows(rows)

	return collectEntries(rows)
}

func (s *Service) GetAccountEntries(ctx context.Context, accountId int64) ([]models.TransactionEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAccountEntries, accountId, accountId)
	if err != nil {
		return nil, fmt.Errorf("unable to query entries for account %d: %w", accountId, err)
	}
	defer closeRows(rows)

	return collectEntries(rows)
}

// ReconcileAccount replays the account's entries over its opening balance
func (s *Service) ReconcileAccount(ctx context.Context, accountId int64) error {
	account, err := s.GetAccount(ctx, accountId)
	if err != nil {
		return err
	}
	entries, err := s.GetAccountEntries(ctx, accountId)
	if err != nil {
		return err
	}

	calculated := account.OpeningBalance
	for _, entry := range entries {
		calculated = applyEntry(calculated, accountId, entry)
	}

	if !calculated.Equal(account.Balance) {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("account_id", accountId),
			zap.String("stored_balance", account.Balance.String()),
			zap.String("calculated_balance", calculated.String()))
		return fmt.Errorf("%w: account %d stored %s, calculated %s",
			store.ErrOutOfBalance, accountId, models.FixedAmount(account.Balance), models.FixedAmount(calculated))
	}
	return nil
}

// applyEntry adds a credit to or subtracts a debit from balance as seen by accountId
func applyEntry(balance decimal.Decimal, accountId int64, entry models.TransactionEntry) decimal.Decimal {
	if entry.ToAccountId != nil && *entry.ToAccountId == accountId {
		balance = balance.Add(entry.Amount)
	}
	if entry.FromAccountId != nil && *entry.FromAccountId == accountId {
		balance = balance.Sub(entry.Amount)
	}
	return balance
}

func collectEntries(rows *sql.Rows) ([]models.TransactionEntry, error) {
	var entries []models.TransactionEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan transaction row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return entries, nil
}

func uniqueSorted(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
