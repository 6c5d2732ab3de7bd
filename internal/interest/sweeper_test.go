package interest_test

import (
	"context"
	"testing"
	"time"

	"bank-ledger-go/internal/interest"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_CreditsEveryInterestBearingAccount(t *testing.T) {
	f := newFixture(t)
	at := f.created.Add(10*24*time.Hour + time.Minute)
	sweeper := interest.NewSweeper(f.engineAt(at), f.store, models.AccrualConfig{Concurrency: 3})

	report, err := sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Accounts, "Checking accounts are not listed")
	assert.Equal(t, 4, report.Credited)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, decimal.RequireFromString("41.78").Equal(report.Total), "got %s", report.Total)

	again, err := sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Credited)
	assert.Equal(t, 4, again.Skipped)
}

func TestSweep_FailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	savings := f.account(t, f.john.Id, "Savings")
	at := f.created.Add(10*24*time.Hour + time.Minute)
	engine := interest.NewEngine(&failingStore{LedgerStore: f.store, accountId: savings.Id}, models.LedgerConfig{},
		interest.WithClock(func() time.Time { return at }))
	sweeper := interest.NewSweeper(engine, f.store, models.AccrualConfig{Concurrency: 2})

	report, err := sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Credited)
	assert.Equal(t, 1, report.Failed)
	require.Contains(t, report.Errors, savings.Id)
	assert.ErrorIs(t, report.Errors[savings.Id], ledger.ErrStorageFailure)

	fixed := f.account(t, f.john.Id, "Fixed Deposit")
	assert.True(t, decimal.RequireFromString("20027.40").Equal(fixed.Balance), "got %s", fixed.Balance)
}

func TestSweeper_StartStop(t *testing.T) {
	f := newFixture(t)
	at := f.created.Add(2 * 24 * time.Hour)
	sweeper := interest.NewSweeper(f.engineAt(at), f.store, models.AccrualConfig{
		Interval:    20 * time.Millisecond,
		Concurrency: 2,
	})

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	require.NoError(t, sweeper.Start(ctx))
	assert.Error(t, sweeper.Start(ctx), "second start is rejected")

	require.Eventually(t, func() bool {
		return f.account(t, f.john.Id, "Savings").LastInterestAt != nil
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()

	entries, err := f.store.GetAccountEntries(f.ctx, f.account(t, f.john.Id, "Savings").Id)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "repeated sweeps credit once per day")
}

func TestSweeper_StartRequiresInterval(t *testing.T) {
	f := newFixture(t)
	sweeper := interest.NewSweeper(f.engineAt(time.Now()), f.store, models.AccrualConfig{})
	assert.Error(t, sweeper.Start(f.ctx))
}
