package database

import (
	"database/sql"
	"fmt"

	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var createdAt string
	if err := row.Scan(&user.Id, &user.AccountNumber, &user.FullName, &user.Email, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanAccountType(row rowScanner) (*models.AccountType, error) {
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

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var rate, minimum, balance, opening, createdAt string
	var lastInterestAt sql.NullString
	err := row.Scan(&account.Id, &account.UserId, &account.AccountTypeId, &account.TypeName,
		&rate, &minimum, &balance, &opening, &lastInterestAt, &createdAt, &account.Version)
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
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lastInterestAt.Valid {
		t, err := parseTime(lastInterestAt.String)
		if err != nil {
			return nil, err
		}
		account.LastInterestAt = &t
	}
	return &account, nil
}

func scanEntry(row rowScanner) (*models.TransactionEntry, error) {
	var entry models.TransactionEntry
	var from, to sql.NullInt64
	var kind, amount, createdAt string
	err := row.Scan(&entry.Id, &entry.Reference, &from, &to, &kind, &amount, &entry.Description, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = models.TransactionKind(kind)
	if from.Valid {
		entry.FromAccountId = &from.Int64
	}
	if to.Valid {
		entry.ToAccountId = &to.Int64
	}
	if entry.Amount, err = parseAmount("amount", amount); err != nil {
		return nil, err
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &entry, nil
}
