package postgres

import (
	"fmt"

	"bank-ledger-go/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.Id, &user.AccountNumber, &user.FullName, &user.Email, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func scanAccountType(row pgx.Row) (*models.AccountType, error) {
	var accountType models.AccountType
	var rate, minimum string
	if err := row.Scan(&accountType.Id, &accountType.Name, &rate, &minimum, &accountType.Description); err != nil {
		return nil, err
	}
	var err error
	if accountType.InterestRate, err = parseAmount("interest_rate", rate); err != nil {
		return nil, err
	}
	if accountType.MinimumBalance, err = parseAmount("minimum_balance", minimum); err != nil {
		return nil, err
	}
	return &accountType, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var rate, minimum, balance, opening string
	err := row.Scan(&account.Id, &account.UserId, &account.AccountTypeId, &account.TypeName,
		&rate, &minimum, &balance, &opening, &account.LastInterestAt, &account.CreatedAt, &account.Version)
	if err != nil {
		return nil, err
	}

	if account.InterestRate, err = parseAmount("interest_rate", rate); err != nil {
		return nil, err
	}
	if account.MinimumBalance, err = parseAmount("minimum_balance", minimum); err != nil {
		return nil, err
	}
	if account.Balance, err = parseAmount("balance", balance); err != nil {
		return nil, err
	}
	if account.OpeningBalance, err = parseAmount("opening_balance", opening); err != nil {
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	if account.LastInterestAt != nil {
		t := account.LastInterestAt.UTC()
		account.LastInterestAt = &t
	}
	return &account, nil
}

func scanEntry(row pgx.Row) (*models.TransactionEntry, error) {
	var entry models.TransactionEntry
	var kind, amount string
	err := row.Scan(&entry.Id, &entry.Reference, &entry.FromAccountId, &entry.ToAccountId,
		&kind, &amount, &entry.Description, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = models.TransactionKind(kind)
	if entry.Amount, err = parseAmount("amount", amount); err != nil {
		return nil, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

// collect drains rows through scan, closing them on every path
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err)
	}
	return items, nil
}
