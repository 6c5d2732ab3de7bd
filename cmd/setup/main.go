package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/seed"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	typesFlag := flag.String("types", "", "Path to an account types YAML file (default: ACCOUNT_TYPES_FILE or built-in catalog)")
	demoFlag := flag.Bool("demo", false, "Create the demo customers and their accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	if *typesFlag != "" {
		cfg.Ledger.AccountTypesFile = *typesFlag
	}

	// Migrations, catalog bootstrap and legacy import all happen here
	zap.L().Info("Initializing ledger storage", zap.String("driver", cfg.Database.Driver))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	types, err := services.Registry.List(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list account types", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT TYPES", common.DefaultWidth)
	for i, accountType := range types {
		item, detail := common.TreePrefix(i == len(types)-1)
		fmt.Printf("%s%-18s rate %7s  minimum %12s\n", item,
			accountType.Name,
			common.RenderRate(accountType.InterestRate),
			accountType.MinimumBalance.StringFixed(2))
		if accountType.Description != "" {
			fmt.Printf("%s%s\n", detail, accountType.Description)
		}
	}

	if *demoFlag {
		users, err := seed.Demo(ctx, services.Store)
		if err != nil {
			zap.L().Fatal("Failed to create demo users", zap.Error(err))
		}
		common.PrintHeader("DEMO USERS", common.DefaultWidth)
		for _, user := range users {
			fmt.Printf("%s  %-12s %s\n", user.AccountNumber, user.FullName, user.Email)
		}
	}

	common.PrintFooter(fmt.Sprintf("Setup complete: %d account types", len(types)), common.DefaultWidth)
}
