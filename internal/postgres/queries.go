package postgres

// Amounts cross the wire as text so no precision is lost in either direction.
const (
	querySetLockTimeout = `SELECT set_config('lock_timeout', $1, true)`

	// User queries
	selectUser = `
		SELECT id, account_number, full_name, email, created_at
		FROM users`

	queryGetUsers = selectUser + `
		ORDER BY id`

	queryGetUserById = selectUser + `
		WHERE id = $1`

	queryGetUserByAccountNumber = selectUser + `
		WHERE account_number = $1`

	queryInsertUser = `
		INSERT INTO users (account_number, full_name, email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	// Account type queries
	selectAccountType = `
		SELECT id, name, interest_rate::text, minimum_balance::text, description
		FROM account_types`

	queryListAccountTypes = selectAccountType + `
		ORDER BY id`

	queryGetAccountType = selectAccountType + `
		WHERE name = $1`

	queryInsertAccountTypeIfMissing = `
		INSERT INTO account_types (name, interest_rate, minimum_balance, description)
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4)
		ON CONFLICT (name) DO NOTHING`

	// Account queries
	selectAccount = `
		SELECT a.id, a.user_id, a.account_type_id, t.name, t.interest_rate::text, t.minimum_balance::text,
		       a.balance::text, a.opening_balance::text, a.last_interest_at, a.created_at, a.version
		FROM accounts a
		JOIN account_types t ON t.id = a.account_type_id`

	queryGetAccount = selectAccount + `
		WHERE a.id = $1`

	queryGetAccountsByUser = selectAccount + `
		WHERE a.user_id = $1
		ORDER BY a.created_at, a.id`

	queryGetAccountByOwnerAndType = selectAccount + `
		WHERE a.user_id = $1 AND t.name = $2
		ORDER BY a.created_at, a.id
		LIMIT 1`

	queryGetRecipientAccount = selectAccount + `
		JOIN users u ON u.id = a.user_id
		WHERE u.account_number = $1
		ORDER BY a.created_at, a.id
		LIMIT 1`

	queryLockAccounts = selectAccount + `
		WHERE a.id = ANY($1)
		ORDER BY a.id
		FOR UPDATE OF a`

	queryInsertAccount = `
		INSERT INTO accounts (user_id, account_type_id, balance, opening_balance, created_at, version)
		VALUES ($1, $2, $3::text::numeric, $3::text::numeric, $4, 1)
		RETURNING id`

	queryListInterestBearingAccountIds = `
		SELECT a.id
		FROM accounts a
		JOIN account_types t ON t.id = a.account_type_id
		WHERE t.interest_rate > 0
		ORDER BY a.id`

	queryUpdateAccountBalance = `
		UPDATE accounts
		SET balance = $1::text::numeric,
		    last_interest_at = COALESCE($2::timestamptz, last_interest_at),
		    version = version + 1
		WHERE id = $3 AND version = $4`

	// Transaction queries
	selectEntry = `
		SELECT id, reference::text, from_account_id, to_account_id, kind, amount::text, description, created_at
		FROM transactions`

	queryInsertTransaction = `
		INSERT INTO transactions (reference, from_account_id, to_account_id, kind, amount, description, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5::text::numeric, $6, $7)
		RETURNING id`

	queryGetTransactionHistory = selectEntry + `
		WHERE from_account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		   OR to_account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	queryGetAccountEntries = selectEntry + `
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at, id`
)
