/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		return nil, fmt.Errorf("unable to get user %d: %w", userId, classifyError(err))
	}
	return user, nil
}

func (s *Service) GetUserByAccountNumber(ctx context.Context, accountNumber string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByAccountNumber, accountNumber))
	if err != nil {
		return nil, fmt.Errorf("unable to get user by account number %s: %w", accountNumber, classifyError(err))
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	if params.AccountNumber == "" || params.FullName == "" || params.Email == "" {
		return nil, fmt.Errorf("account number, full name and email are required")
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, queryInsertUser, params.AccountNumber, params.FullName, params.Email, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("unable to create user %s: %w", params.AccountNumber, classifyError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("unable to read new user id: %w", err)
	}

	zap.L().Info("User created",
		zap.Int64("user_id", id),
		zap.String("account_number", params.AccountNumber),
		zap.String("email", params.Email))

	return &models.User{
		Id:            id,
		AccountNumber: params.AccountNumber,
		FullName:      params.FullName,
		Email:         params.Email,
		CreatedAt:     now,
	}, nil
}
