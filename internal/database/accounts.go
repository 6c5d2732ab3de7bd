package database

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) ListAccountTypes(ctx context.Context) ([]models.AccountType, error) {
	rows, err := s.db.QueryContext(ctx, queryListAccountTypes)
	if err != nil {
		return nil, fmt.Errorf("unable to query account types: %w", err)
	}
	defer closeRows(rows)

	var types []models.AccountType
	for rows.Next() {
		accountType, err := scanAccountType(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan account type row: %w", err)
		}
		types = append(types, *accountType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account type rows: %w", err)
	}
	return types, nil
}

func (s *Service) GetAccountType(ctx context.Context, name string) (*models.AccountType, error) {
	accountType, err := scanAccountType(s.db.QueryRowContext(ctx, queryGetAccountType, name))
	if err != nil {
		return nil, fmt.Errorf("unable to get account type %q: %w", name, classifyError(err))
	}
	return accountType, nil
}

func (s *Service) EnsureAccountType(ctx context.Context, def models.AccountType) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryInsertAccountTypeIfMissing,
		def.Name, def.InterestRate.String(), models.FixedAmount(def.MinimumBalance), def.Description, formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("unable to insert account type %q: %w", def.Name, classifyError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *Service) OpenAccount(ctx context.Context, params store.OpenAccountParams) (*models.Account, error) {
	if params.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("opening balance cannot be negative: %s", params.OpeningBalance)
	}
	accountType, err := s.GetAccountType(ctx, params.AccountType)
	if err != nil {
		return nil, err
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	opening := models.FixedAmount(params.OpeningBalance)

	result, err := s.db.ExecContext(ctx, queryInsertAccount,
		params.UserId, accountType.Id, opening, opening, formatTime(createdAt))
	if err != nil {
		return nil, fmt.Errorf("unable to open %s account for user %d: %w", params.AccountType, params.UserId, classifyError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("unable to read new account id: %w", err)
	}

	zap.L().Info("Account opened",
		zap.Int64("account_id", id),
		zap.Int64("user_id", params.UserId),
		zap.String("account_type", accountType.Name),
		zap.String("opening_balance", opening))

	return s.GetAccount(ctx, id)
}

func (s *Service) GetAccount(ctx context.Context, accountId int64) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccount, accountId))
	if err != nil {
		return nil, fmt.Errorf("unable to get account %d: %w", accountId, classifyError(err))
	}
	return account, nil
}

func (s *Service) GetAccountsByUser(ctx context.Context, userId int64) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAccountsByUser, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query accounts for user %d: %w", userId, err)
	}
	defer closeRows(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) ListInterestBearingAccountIds(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, queryListInterestBearingAccountIds)
	if err != nil {
		return nil, fmt.Errorf("unable to query interest-bearing accounts: %w", err)
	}
	defer closeRows(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("unable to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account ids: %w", err)
	}
	return ids, nil
}
