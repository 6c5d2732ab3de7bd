package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bank-ledger-go/internal/database"
	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTypesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "account_types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	service, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "registry.db"),
		MaxOpenConns: 2,
		PingTimeout:  5 * time.Second,
		LockTimeout:  2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(service.Close)
	return New(service)
}

func TestDefaults(t *testing.T) {
	defs := Defaults()
	require.Len(t, defs, 4)

	byName := make(map[string]models.AccountType)
	for _, def := range defs {
		byName[def.Name] = def
	}
	assert.False(t, byName["Checking"].EarnsInterest())
	assert.True(t, byName["Savings"].InterestRate.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, byName["Fixed Deposit"].MinimumBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, byName["Premium Checking"].MinimumBalance.Equal(decimal.NewFromInt(5000)))
}

func TestLoadFile(t *testing.T) {
	path := writeTypesFile(t, `
account_types:
  - name: Checking
    interest_rate: 0
    minimum_balance: 0
  - name: Student Saver
    interest_rate: 1.75
    minimum_balance: 25.5
    description: For students
`)

	defs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Student Saver", defs[1].Name)
	assert.True(t, defs[1].InterestRate.Equal(decimal.RequireFromString("1.75")))
	assert.True(t, defs[1].MinimumBalance.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, "For students", defs[1].Description)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty catalog", "account_types: []\n"},
		{"missing name", "account_types:\n  - interest_rate: 1\n"},
		{"negative rate", "account_types:\n  - name: Bad\n    interest_rate: -1\n"},
		{"negative minimum", "account_types:\n  - name: Bad\n    minimum_balance: -5\n"},
		{"unparsable rate", "account_types:\n  - name: Bad\n    interest_rate: lots\n"},
		{"duplicate name", "account_types:\n  - name: A\n  - name: A\n"},
		{"not yaml", "account_types: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeTypesFile(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBootstrap_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	added, err := registry.Bootstrap(ctx, Defaults())
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	custom := Defaults()
	custom[1].InterestRate = decimal.NewFromInt(10)
	added, err = registry.Bootstrap(ctx, custom)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	savings, err := registry.Get(ctx, "Savings")
	require.NoError(t, err)
	assert.True(t, savings.InterestRate.Equal(decimal.RequireFromString("2.5")), "existing type must not be modified")

	types, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 4)

	_, err = registry.Get(ctx, "Platinum")
	assert.ErrorIs(t, err, ErrUnknownAccountType)
}
