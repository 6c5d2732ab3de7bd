package store

import (
	"context"
	"errors"
	"time"

	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicate              = errors.New("duplicate record")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrLockTimeout            = errors.New("lock wait timed out")
	ErrOutOfBalance           = errors.New("account does not reconcile with its entries")
)

// IsRetryable reports whether err is a transient contention failure that a
// caller may retry against a fresh unit of work.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrLockTimeout)
}

// CreateUserParams contains the parameters for registering a user.
type CreateUserParams struct {
	AccountNumber string
	FullName      string
	Email         string
}

// OpenAccountParams contains the parameters for opening an account.
type OpenAccountParams struct {
	UserId         int64
	AccountType    string
	OpeningBalance decimal.Decimal
	CreatedAt      time.Time // zero means now
}

// UpdateBalanceParams sets an account's balance. The write only succeeds when
// the stored version still equals ExpectedVersion.
type UpdateBalanceParams struct {
	AccountId       int64
	Balance         decimal.Decimal
	ExpectedVersion int64
	InterestAt      *time.Time // non-nil also advances last_interest_at
}

// AppendEntryParams describes one audit entry to append.
type AppendEntryParams struct {
	Kind          models.TransactionKind
	FromAccountId *int64
	ToAccountId   *int64
	Amount        decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// Tx is the view of storage inside one unit of work. The lookup methods only
// resolve which account is meant; callers must take the authoritative state
// from LockAccounts before deciding on a balance change.
type Tx interface {
	AccountByOwnerAndType(ctx context.Context, ownerId int64, typeName string) (*models.Account, error)
	AccountById(ctx context.Context, accountId int64) (*models.Account, error)
	// LockAccounts locks the given accounts in ascending id order and returns
	// their current state keyed by id.
	LockAccounts(ctx context.Context, accountIds ...int64) (map[int64]*models.Account, error)
	// RecipientAccount returns the oldest account, by creation order, of the
	// user holding accountNumber.
	RecipientAccount(ctx context.Context, accountNumber string) (*models.Account, error)
	UserById(ctx context.Context, userId int64) (*models.User, error)
	UpdateBalance(ctx context.Context, params UpdateBalanceParams) error
	AppendEntry(ctx context.Context, params AppendEntryParams) (*models.TransactionEntry, error)
}

// LedgerStore defines the contract that every backend (SQLite, PostgreSQL) must satisfy.
type LedgerStore interface {
	// --- Units of work ---
	// WithinUnitOfWork runs fn in one atomic transaction: it commits when fn
	// returns nil and rolls back otherwise.
	WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// --- Account types ---
	ListAccountTypes(ctx context.Context) ([]models.AccountType, error)
	GetAccountType(ctx context.Context, name string) (*models.AccountType, error)
	// EnsureAccountType inserts the type when no type of that name exists and
	// reports whether it did. Existing rows are left untouched.
	EnsureAccountType(ctx context.Context, def models.AccountType) (bool, error)

	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUserById(ctx context.Context, userId int64) (*models.User, error)
	GetUserByAccountNumber(ctx context.Context, accountNumber string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)

	// --- Accounts ---
	OpenAccount(ctx context.Context, params OpenAccountParams) (*models.Account, error)
	GetAccount(ctx context.Context, accountId int64) (*models.Account, error)
	GetAccountsByUser(ctx context.Context, userId int64) ([]models.Account, error)
	ListInterestBearingAccountIds(ctx context.Context) ([]int64, error)

	// --- Transaction log ---
	GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.TransactionEntry, error)
	GetAccountEntries(ctx context.Context, accountId int64) ([]models.TransactionEntry, error)
	// ReconcileAccount checks that the opening balance plus every credit minus
	// every debit in the log equals the stored balance.
	ReconcileAccount(ctx context.Context, accountId int64) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
