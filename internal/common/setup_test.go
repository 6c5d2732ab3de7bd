package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	return &models.Config{
		Database: models.DatabaseConfig{
			Driver:       "sqlite3",
			Path:         filepath.Join(t.TempDir(), "setup.db"),
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			PingTimeout:  5 * time.Second,
			LockTimeout:  5 * time.Second,
		},
		Ledger: models.LedgerConfig{
			DepositAccountType: "Checking",
			MaxRetries:         3,
			RetryBackoff:       time.Millisecond,
		},
		Accrual: models.AccrualConfig{Interval: time.Hour, Concurrency: 2},
	}
}

func TestInitializeServicesWithDefaults(t *testing.T) {
	ctx := context.Background()
	services, err := InitializeServices(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("InitializeServices() error = %v", err)
	}
	defer services.Close()

	types, err := services.Registry.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(types) != 4 {
		t.Errorf("catalog has %d types, want 4", len(types))
	}
	if err := services.Api.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestInitializeServicesFromTypesFile(t *testing.T) {
	typesFile := filepath.Join(t.TempDir(), "types.yaml")
	content := `account_types:
  - name: Checking
    interest_rate: "0"
    minimum_balance: "0"
    description: Everyday account
  - name: Youth Saver
    interest_rate: "3.75"
    minimum_balance: "10"
    description: Savings for minors
`
	if err := os.WriteFile(typesFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write types file: %v", err)
	}

	cfg := testConfig(t)
	cfg.Ledger.AccountTypesFile = typesFile

	ctx := context.Background()
	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		t.Fatalf("InitializeServices() error = %v", err)
	}
	defer services.Close()

	youth, err := services.Registry.Get(ctx, "Youth Saver")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !youth.InterestRate.Equal(decimal.RequireFromString("3.75")) {
		t.Errorf("InterestRate = %s, want 3.75", youth.InterestRate)
	}
}

func TestInitializeServicesRejectsUnknownDepositType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.DepositAccountType = "Current"

	if _, err := InitializeServices(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown deposit account type")
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), models.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSignedAmount(t *testing.T) {
	source, destination := int64(1), int64(2)
	entry := models.TransactionEntry{
		Kind:          models.KindTransfer,
		FromAccountId: &source,
		ToAccountId:   &destination,
		Amount:        decimal.NewFromInt(1500),
	}
	if got := SignedAmount(entry, source); got != "-$1,500.00" {
		t.Errorf("SignedAmount(source) = %q", got)
	}
	if got := SignedAmount(entry, destination); got != "+$1,500.00" {
		t.Errorf("SignedAmount(destination) = %q", got)
	}
	if got := RenderRate(decimal.RequireFromString("2.5")); got != "2.50%" {
		t.Errorf("RenderRate() = %q", got)
	}
}
