package postgres

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Service) ListAccountTypes(ctx context.Context) ([]models.AccountType, error) {
	rows, err := s.pool.Query(ctx, queryListAccountTypes)
	if err != nil {
		return nil, fmt.Errorf("unable to query account types: %w", classifyError(err))
	}
	types, err := collect(rows, scanAccountType)
	if err != nil {
		return nil, fmt.Errorf("unable to read account type rows: %w", err)
	}
	return types, nil
}

func (s *Service) GetAccountType(ctx context.Context, name string) (*models.AccountType, error) {
	accountType, err := scanAccountType(s.pool.QueryRow(ctx, queryGetAccountType, name))
	if err != nil {
		return nil, fmt.Errorf("unable to get account type %q: %w", name, classifyError(err))
	}
	return accountType, nil
}

func (s *Service) EnsureAccountType(ctx context.Context, def models.AccountType) (bool, error) {
	tag, err := s.pool.Exec(ctx, queryInsertAccountTypeIfMissing,
		def.Name, def.InterestRate.String(), models.FixedAmount(def.MinimumBalance), def.Description)
	if err != nil {
		return false, fmt.Errorf("unable to insert account type %q: %w", def.Name, classifyError(err))
	}
	return tag.RowsAffected() > 0, nil
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

	var id int64
	err = s.pool.QueryRow(ctx, queryInsertAccount, params.UserId, accountType.Id, opening, createdAt.UTC()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s account for user %d: %w", params.AccountType, params.UserId, classifyError(err))
	}

	zap.L().Info("Account opened",
		zap.Int64("account_id", id),
		zap.Int64("user_id", params.UserId),
		zap.String("account_type", accountType.Name),
		zap.String("opening_balance", opening))

	return s.GetAccount(ctx, id)
}

func (s *Service) GetAccount(ctx context.Context, accountId int64) (*models.Account, error) {
	account, err := scanAccount(s.pool.QueryRow(ctx, queryGetAccount, accountId))
	if err != nil {
		return nil, fmt.Errorf("unable to get account %d: %w", accountId, classifyError(err))
	}
	return account, nil
}

func (s *Service) GetAccountsByUser(ctx context.Context, userId int64) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx, queryGetAccountsByUser, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query accounts for user %d: %w", userId, classifyError(err))
	}
	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("unable to read account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) ListInterestBearingAccountIds(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, queryListInterestBearingAccountIds)
	if err != nil {
		return nil, fmt.Errorf("unable to query interest-bearing accounts: %w", classifyError(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("unable to read account ids: %w", classifyError(err))
	}
	return ids, nil
}
