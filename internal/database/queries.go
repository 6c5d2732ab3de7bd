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

const (
	// User queries
	queryGetUsers = `
		SELECT id, account_number, full_name, email, created_at
		FROM users
		ORDER BY id`

	queryInsertUser = `
		INSERT INTO users (account_number, full_name, email, created_at) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, account_number, full_name, email, created_at
		FROM users
		WHERE id = ?`

	queryGetUserByAccountNumber = `
		SELECT id, account_number, full_name, email, created_at
		FROM users
		WHERE account_number = ?`

	// Account type queries
	queryListAccountTypes = `
		SELECT id, name, interest_rate, minimum_balance, description
		FROM account_types
		ORDER BY id`

	queryGetAccountType = `
		SELECT id, name, interest_rate, minimum_balance, description
		FROM account_types
		WHERE name = ?`

	queryInsertAccountTypeIfMissing = `
		INSERT INTO account_types (name, interest_rate, minimum_balance, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`

	// Account queries
	selectAccount = `
		SELECT a.id, a.user_id, a.account_type_id, t.name, t.interest_rate, t.minimum_balance,
		       a.balance, a.opening_balance, a.last_interest_at, a.created_at, a.version
		FROM accounts a
		JOIN account_types t ON t.id = a.account_type_id`

	queryGetAccount = selectAccount + `
		WHERE a.id = ?`

	queryGetAccountsByUser = selectAccount + `
		WHERE a.user_id = ?
		ORDER BY a.created_at, a.id`

	queryGetAccountByOwnerAndType = selectAccount + `
		WHERE a.user_id = ? AND t.name = ?
		ORDER BY a.created_at, a.id
		LIMIT 1`

	queryGetRecipientAccount = selectAccount + `
		JOIN users u ON u.id = a.user_id
		WHERE u.account_number = ?
		ORDER BY a.created_at, a.id
		LIMIT 1`

	queryInsertAccount = `
		INSERT INTO accounts (user_id, account_type_id, balance, opening_balance, created_at, version)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryListInterestBearingAccountIds = `
		SELECT a.id
		FROM accounts a
		JOIN account_types t ON t.id = a.account_type_id
		WHERE CAST(t.interest_rate AS NUMERIC) > 0
		ORDER BY a.id`

	queryUpdateAccountBalance = `
		UPDATE accounts
		SET balance = ?, last_interest_at = COALESCE(?, last_interest_at), version = version + 1
		WHERE id = ? AND version = ?`

	// Transaction queries
	selectEntry = `
		SELECT id, reference, from_account_id, to_account_id, kind, amount, description, created_at
		FROM transactions`

	queryInsertTransaction = `
		INSERT INTO transactions (reference, from_account_id, to_account_id, kind, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = selectEntry + `
		WHERE from_account_id IN (SELECT id FROM accounts WHERE user_id = ?)
		   OR to_account_id IN (SELECT id FROM accounts WHERE user_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryGetAccountEntries = selectEntry + `
		WHERE from_account_id = ? OR to_account_id = ?
		ORDER BY created_at, id`
)
