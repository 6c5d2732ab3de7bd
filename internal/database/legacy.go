package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bank-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tables written by the unversioned schema that predates migrations
var legacyTables = []string{"users", "account_types", "accounts", "transactions"}

// legacyTimeLayouts are the CURRENT_TIMESTAMP and datetime adapter formats
var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func (s *Service) tableExists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, name string) (bool, error) {
	var found string
	err := q.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", name, err)
	}
	return true, nil
}

// detachLegacyTables renames the tables of an unversioned database out of the
// way so that migrations can create the current schema. It is a no-op once
// migrations have run.
func (s *Service) detachLegacyTables(ctx context.Context) error {
	versioned, err := s.tableExists(ctx, s.db, "schema_migrations")
	if err != nil || versioned {
		return err
	}

	for _, table := range legacyTables {
		exists, err := s.tableExists(ctx, s.db, table)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO legacy_%s`, table, table)); err != nil {
			return fmt.Errorf("failed to detach legacy table %s: %w", table, err)
		}
		zap.L().Info("Detached legacy table", zap.String("table", table))
	}
	return nil
}

// ImportLegacyData copies users, account types, accounts and transactions
// from detached legacy tables into the current schema, then drops them. Ids
// are preserved. An account whose type cannot be resolved becomes Checking.
// Each account's opening balance is derived so that it reconciles with the
// imported history. Returns the number of imported accounts.
func (s *Service) ImportLegacyData(ctx context.Context) (int, error) {
	present, err := s.tableExists(ctx, s.db, "legacy_accounts")
	if err != nil || !present {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin legacy import: %w", classifyError(err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back legacy import", zap.Error(err))
		}
	}()

	legacyTypeNames, err := s.importLegacyAccountTypes(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := s.importLegacyUsers(ctx, tx); err != nil {
		return 0, err
	}
	balances, err := s.importLegacyAccounts(ctx, tx, legacyTypeNames)
	if err != nil {
		return 0, err
	}
	net, err := s.importLegacyTransactions(ctx, tx, balances)
	if err != nil {
		return 0, err
	}

	for accountId, balance := range balances {
		opening := balance.Sub(net[accountId])
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET opening_balance = ? WHERE id = ?`,
			models.FixedAmount(opening), accountId); err != nil {
			return 0, fmt.Errorf("failed to set opening balance of account %d: %w", accountId, err)
		}
	}

	for i := len(legacyTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS legacy_%s`, legacyTables[i])); err != nil {
			return 0, fmt.Errorf("failed to drop legacy table %s: %w", legacyTables[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit legacy import: %w", classifyError(err))
	}

	zap.L().Info("Legacy data imported", zap.Int("accounts", len(balances)))
	return len(balances), nil
}

func (s *Service) importLegacyAccountTypes(ctx context.Context, tx *sql.Tx) (map[int64]string, error) {
	names := make(map[int64]string)
	exists, err := s.tableExists(ctx, tx, "legacy_account_types")
	if err != nil || !exists {
		return names, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, type_name, interest_rate, minimum_balance, COALESCE(description, '') FROM legacy_account_types`)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy account types: %w", err)
	}
	type legacyType struct {
		id                   int64
		name, description    string
		rate, minimumBalance float64
	}
	var types []legacyType
	for rows.Next() {
		var lt legacyType
		if err := rows.Scan(&lt.id, &lt.name, &lt.rate, &lt.minimumBalance, &lt.description); err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan legacy account type: %w", err)
		}
		types = append(types, lt)
	}
	closeRows(rows)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy account types: %w", err)
	}

	for _, lt := range types {
		names[lt.id] = lt.name
		_, err := tx.ExecContext(ctx, queryInsertAccountTypeIfMissing, lt.name,
			decimal.NewFromFloat(lt.rate).String(),
			models.FixedAmount(decimal.NewFromFloat(lt.minimumBalance)),
			lt.description, formatTime(time.Now()))
		if err != nil {
			return nil, fmt.Errorf("failed to import account type %s: %w", lt.name, err)
		}
	}
	return names, nil
}

func (s *Service) importLegacyUsers(ctx context.Context, tx *sql.Tx) error {
	exists, err := s.tableExists(ctx, tx, "legacy_users")
	if err != nil || !exists {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, account_number, full_name, email, created_at FROM legacy_users ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to read legacy users: %w", err)
	}
	type legacyUser struct {
		id                             int64
		accountNumber, fullName, email string
		createdAt                      time.Time
	}
	var users []legacyUser
	for rows.Next() {
		var lu legacyUser
		var createdAt any
		if err := rows.Scan(&lu.id, &lu.accountNumber, &lu.fullName, &lu.email, &createdAt); err != nil {
			closeRows(rows)
			return fmt.Errorf("failed to scan legacy user: %w", err)
		}
		lu.createdAt, _ = legacyTime(createdAt)
		users = append(users, lu)
	}
	closeRows(rows)
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating legacy users: %w", err)
	}

	for _, lu := range users {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, account_number, full_name, email, created_at) VALUES (?, ?, ?, ?, ?)`,
			lu.id, lu.accountNumber, lu.fullName, lu.email, formatTime(lu.createdAt))
		if err != nil {
			return fmt.Errorf("failed to import user %s: %w", lu.accountNumber, classifyError(err))
		}
	}
	return nil
}

// importLegacyAccounts returns the imported balance of every account by id
func (s *Service) importLegacyAccounts(ctx context.Context, tx *sql.Tx, legacyTypeNames map[int64]string) (map[int64]decimal.Decimal, error) {
	columns, err := tableColumns(ctx, tx, "legacy_accounts")
	if err != nil {
		return nil, err
	}

	typeExpr := "CAST(account_type_id AS TEXT)"
	if columns["account_type"] && !columns["account_type_id"] {
		typeExpr = "account_type"
	}
	interestExpr := "NULL"
	if columns["last_interest_calc_date"] {
		interestExpr = "last_interest_calc_date"
	}

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, %s, COALESCE(balance, 0), %s, created_at FROM legacy_accounts ORDER BY id`,
		typeExpr, interestExpr))
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy accounts: %w", err)
	}
	type legacyAccount struct {
		id, userId     int64
		typeRef        sql.NullString
		balance        float64
		lastInterestAt any
		createdAt      any
	}
	var accounts []legacyAccount
	for rows.Next() {
		var la legacyAccount
		if err := rows.Scan(&la.id, &la.userId, &la.typeRef, &la.balance, &la.lastInterestAt, &la.createdAt); err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan legacy account: %w", err)
		}
		accounts = append(accounts, la)
	}
	closeRows(rows)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy accounts: %w", err)
	}

	typeIds := make(map[string]int64)
	typeRows, err := tx.QueryContext(ctx, `SELECT id, name FROM account_types`)
	if err != nil {
		return nil, fmt.Errorf("failed to read account types: %w", err)
	}
	for typeRows.Next() {
		var id int64
		var name string
		if err := typeRows.Scan(&id, &name); err != nil {
			closeRows(typeRows)
			return nil, fmt.Errorf("failed to scan account type: %w", err)
		}
		typeIds[name] = id
	}
	closeRows(typeRows)
	fallbackId, ok := typeIds["Checking"]
	if !ok {
		return nil, fmt.Errorf("cannot import legacy accounts: account type Checking is not defined")
	}

	balances := make(map[int64]decimal.Decimal, len(accounts))
	for _, la := range accounts {
		name := la.typeRef.String
		if typeExpr != "account_type" {
			var legacyId int64
			if _, err := fmt.Sscan(la.typeRef.String, &legacyId); err == nil {
				name = legacyTypeNames[legacyId]
			}
		}
		typeId, ok := typeIds[name]
		if !ok {
			zap.L().Warn("Legacy account has unknown type, importing as Checking",
				zap.Int64("account_id", la.id),
				zap.String("account_type", la.typeRef.String))
			typeId = fallbackId
		}

		createdAt, _ := legacyTime(la.createdAt)
		var lastInterestAt any
		if t, ok := legacyTime(la.lastInterestAt); ok {
			lastInterestAt = formatTime(t)
		}
		balance := models.RoundAmount(decimal.NewFromFloat(la.balance))

		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, user_id, account_type_id, balance, opening_balance, last_interest_at, created_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
			la.id, la.userId, typeId, models.FixedAmount(balance), models.FixedAmount(balance), lastInterestAt, formatTime(createdAt))
		if err != nil {
			return nil, fmt.Errorf("failed to import account %d: %w", la.id, classifyError(err))
		}
		balances[la.id] = balance
	}
	return balances, nil
}

// importLegacyTransactions returns, per account, credits minus debits of the
// imported entries. Entries with an invalid shape are skipped.
func (s *Service) importLegacyTransactions(ctx context.Context, tx *sql.Tx, accounts map[int64]decimal.Decimal) (map[int64]decimal.Decimal, error) {
	net := make(map[int64]decimal.Decimal)
	exists, err := s.tableExists(ctx, tx, "legacy_transactions")
	if err != nil || !exists {
		return net, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, from_account_id, to_account_id, transaction_type, amount, COALESCE(description, ''), created_at
		FROM legacy_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy transactions: %w", err)
	}
	type legacyEntry struct {
		id          int64
		from, to    sql.NullInt64
		kind        string
		amount      float64
		description string
		createdAt   any
	}
	var entries []legacyEntry
	for rows.Next() {
		var le legacyEntry
		if err := rows.Scan(&le.id, &le.from, &le.to, &le.kind, &le.amount, &le.description, &le.createdAt); err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan legacy transaction: %w", err)
		}
		entries = append(entries, le)
	}
	closeRows(rows)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy transactions: %w", err)
	}

	for _, le := range entries {
		var from, to *int64
		if le.from.Valid {
			from = &le.from.Int64
		}
		if le.to.Valid {
			to = &le.to.Int64
		}
		kind := models.TransactionKind(strings.ToUpper(le.kind))
		amount := models.RoundAmount(decimal.NewFromFloat(le.amount))

		if err := kind.Validate(from, to); err != nil || !amount.IsPositive() || !known(accounts, from) || !known(accounts, to) {
			zap.L().Warn("Skipping malformed legacy transaction",
				zap.Int64("transaction_id", le.id),
				zap.String("type", le.kind),
				zap.String("amount", amount.String()))
			continue
		}

		createdAt, _ := legacyTime(le.createdAt)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, reference, from_account_id, to_account_id, kind, amount, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			le.id, uuid.New().String(), from, to, string(kind), models.FixedAmount(amount), le.description, formatTime(createdAt))
		if err != nil {
			return nil, fmt.Errorf("failed to import transaction %d: %w", le.id, classifyError(err))
		}

		if to != nil {
			net[*to] = net[*to].Add(amount)
		}
		if from != nil {
			net[*from] = net[*from].Sub(amount)
		}
	}
	return net, nil
}

func known(accounts map[int64]decimal.Decimal, id *int64) bool {
	if id == nil {
		return true
	}
	_, ok := accounts[*id]
	return ok
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM pragma_table_info('%s')`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect columns of %s: %w", table, err)
	}
	defer closeRows(rows)

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// legacyTime accepts whatever the driver returned for a legacy timestamp
// column. Missing or unparseable values yield the current time and false.
func legacyTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		return parseLegacyTime(v)
	case []byte:
		return parseLegacyTime(string(v))
	}
	return time.Now().UTC(), false
}

func parseLegacyTime(value string) (time.Time, bool) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Now().UTC(), false
}
