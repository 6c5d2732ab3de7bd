package postgres

import (
	"errors"
	"fmt"

	"bank-ledger-go/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode      = "23505"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	lockNotAvailableCode     = "55P03"
)

// classifyError maps driver errors onto the store sentinels. Unknown errors
// are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case lockNotAvailableCode:
		return fmt.Errorf("%w: %v", store.ErrLockTimeout, err)
	case serializationFailureCode, deadlockDetectedCode:
		return fmt.Errorf("%w: %v", store.ErrConcurrentModification, err)
	case uniqueViolationCode:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
