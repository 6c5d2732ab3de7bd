package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry
type TransactionKind string

const (
	KindDeposit    TransactionKind = "DEPOSIT"
	KindWithdrawal TransactionKind = "WITHDRAWAL"
	KindTransfer   TransactionKind = "TRANSFER"
	KindInterest   TransactionKind = "INTEREST"
)

// Validate checks the account-reference shape required for the kind.
// DEPOSIT and INTEREST credit a destination only, WITHDRAWAL debits a source
// only, TRANSFER needs two distinct accounts.
func (k TransactionKind) Validate(from, to *int64) error {
	switch k {
	case KindDeposit, KindInterest:
		if from != nil || to == nil {
			return fmt.Errorf("%s entry requires a destination account only", k)
		}
	case KindWithdrawal:
		if from == nil || to != nil {
			return fmt.Errorf("%s entry requires a source account only", k)
		}
	case KindTransfer:
		if from == nil || to == nil {
			return fmt.Errorf("%s entry requires source and destination accounts", k)
		}
		if *from == *to {
			return fmt.Errorf("%s entry cannot reference the same account twice", k)
		}
	default:
		return fmt.Errorf("unknown transaction kind %q", string(k))
	}
	return nil
}

// User owns one or more accounts. Credentials live elsewhere.
type User struct {
	Id            int64     `db:"id"`
	AccountNumber string    `db:"account_number"`
	FullName      string    `db:"full_name"`
	Email         string    `db:"email"`
	CreatedAt     time.Time `db:"created_at"`
}

// AccountType is the policy bundle shared by every account of that category
type AccountType struct {
	Id             int64           `db:"id"`
	Name           string          `db:"name"`
	InterestRate   decimal.Decimal `db:"interest_rate"`
	MinimumBalance decimal.Decimal `db:"minimum_balance"`
	Description    string          `db:"description"`
}

// EarnsInterest reports whether the type has a positive annual rate
func (t AccountType) EarnsInterest() bool {
	return t.InterestRate.IsPositive()
}

// Account is the current-state row of a user's account, with its type's
// policy joined in at read time.
type Account struct {
	Id             int64           `db:"id"`
	UserId         int64           `db:"user_id"`
	AccountTypeId  int64           `db:"account_type_id"`
	TypeName       string          `db:"type_name"`
	InterestRate   decimal.Decimal `db:"interest_rate"`
	MinimumBalance decimal.Decimal `db:"minimum_balance"`
	Balance        decimal.Decimal `db:"balance"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`
	LastInterestAt *time.Time      `db:"last_interest_at"`
	CreatedAt      time.Time       `db:"created_at"`
	Version        int64           `db:"version"`
}

// AccrualBaseline is the instant interest was last credited, or the creation
// time when the account has never accrued.
func (a Account) AccrualBaseline() time.Time {
	if a.LastInterestAt != nil {
		return *a.LastInterestAt
	}
	return a.CreatedAt
}

// TransactionEntry is an immutable audit record of one balance change
type TransactionEntry struct {
	Id            int64           `db:"id"`
	Reference     string          `db:"reference"`
	FromAccountId *int64          `db:"from_account_id"`
	ToAccountId   *int64          `db:"to_account_id"`
	Kind          TransactionKind `db:"kind"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}
