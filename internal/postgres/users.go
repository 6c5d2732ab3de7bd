package postgres

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", classifyError(err))
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("unable to read user rows: %w", err)
	}
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, queryGetUserById, userId))
	if err != nil {
		return nil, fmt.Errorf("unable to get user %d: %w", userId, classifyError(err))
	}
	return user, nil
}

func (s *Service) GetUserByAccountNumber(ctx context.Context, accountNumber string) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, queryGetUserByAccountNumber, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("unable to get user by account number %s: %w", accountNumber, classifyError(err))
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	if params.AccountNumber == "" || params.FullName == "" || params.Email == "" {
		return nil, fmt.Errorf("account number, full name and email are required")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	var id int64
	err := s.pool.QueryRow(ctx, queryInsertUser, params.AccountNumber, params.FullName, params.Email, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("unable to create user %s: %w", params.AccountNumber, classifyError(err))
	}

	zap.L().Info("User created",
		zap.Int64("user_id", id),
		zap.String("account_number", params.AccountNumber))

	return &models.User{
		Id:            id,
		AccountNumber: params.AccountNumber,
		FullName:      params.FullName,
		Email:         params.Email,
		CreatedAt:     now,
	}, nil
}
