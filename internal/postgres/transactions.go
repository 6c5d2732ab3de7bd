package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) AccountByOwnerAndType(ctx context.Context, ownerId int64, typeName string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRow(ctx, queryGetAccountByOwnerAndType, ownerId, typeName))
	if err != nil {
		return nil, fmt.Errorf("unable to find %s account for user %d: %w", typeName, ownerId, classifyError(err))
	}
	return account, nil
}

func (u *unitOfWork) AccountById(ctx context.Context, accountId int64) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRow(ctx, queryGetAccount, accountId))
	if err != nil {
		return nil, fmt.Errorf("unable to find account %d: %w", accountId, classifyError(err))
	}
	return account, nil
}

// LockAccounts takes the row locks in one statement. ORDER BY id makes every
// unit of work acquire them in the same order.
func (u *unitOfWork) LockAccounts(ctx context.Context, accountIds ...int64) (map[int64]*models.Account, error) {
	ids := slices.Clone(accountIds)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return map[int64]*models.Account{}, nil
	}

	rows, err := u.tx.Query(ctx, queryLockAccounts, ids)
	if err != nil {
		return nil, fmt.Errorf("unable to lock accounts: %w", classifyError(err))
	}
	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("unable to lock accounts: %w", err)
	}

	locked := make(map[int64]*models.Account, len(accounts))
	for i := range accounts {
		locked[accounts[i].Id] = &accounts[i]
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("account %d: %w", id, store.ErrNotFound)
		}
	}
	return locked, nil
}

func (u *unitOfWork) RecipientAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRow(ctx, queryGetRecipientAccount, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("unable to find account for %s: %w", accountNumber, classifyError(err))
	}
	return account, nil
}

func (u *unitOfWork) UserById(ctx context.Context, userId int64) (*models.User, error) {
	user, err := scanUser(u.tx.QueryRow(ctx, queryGetUserById, userId))
	if err != nil {
		return nil, fmt.Errorf("unable to get user %d: %w", userId, classifyError(err))
	}
	return user, nil
}

func (u *unitOfWork) UpdateBalance(ctx context.Context, params store.UpdateBalanceParams) error {
	tag, err := u.tx.Exec(ctx, queryUpdateAccountBalance,
		models.FixedAmount(params.Balance), params.InterestAt, params.AccountId, params.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", classifyError(err))
	}
	if tag.RowsAffected() == 0 {
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
		CreatedAt:     params.CreatedAt.UTC().Truncate(time.Microsecond),
	}

	err := u.tx.QueryRow(ctx, queryInsertTransaction,
		entry.Reference, entry.FromAccountId, entry.ToAccountId, string(entry.Kind),
		models.FixedAmount(entry.Amount), entry.Description, entry.CreatedAt).Scan(&entry.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", classifyError(err))
	}
	return entry, nil
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.TransactionEntry, error) {
	zap.L().Debug("Querying transaction history",
		zap.Int64("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.pool.Query(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query transaction history: %w", classifyError(err))
	}
	entries, err := collect(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("unable to read transaction rows: %w", err)
	}
	return entries, nil
}

func (s *Service) GetAccountEntries(ctx context.Context, accountId int64) ([]models.TransactionEntry, error) {
	rows, err := s.pool.Query(ctx, queryGetAccountEntries, accountId)
	if err != nil {
		return nil, fmt.Errorf("unable to query entries for account %d: %w", accountId, classifyError(err))
	}
	entries, err := collect(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("unable to read transaction rows: %w", err)
	}
	return entries, nil
}

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
		if entry.ToAccountId != nil && *entry.ToAccountId == accountId {
			calculated = calculated.Add(entry.Amount)
		}
		if entry.FromAccountId != nil && *entry.FromAccountId == accountId {
			calculated = calculated.Sub(entry.Amount)
		}
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
