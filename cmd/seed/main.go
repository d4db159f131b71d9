package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tortasnery/storefront/internal/auth"
	"github.com/tortasnery/storefront/internal/categories"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/products"
	"github.com/tortasnery/storefront/internal/seed"
	"github.com/tortasnery/storefront/internal/settings"
	"github.com/tortasnery/storefront/internal/users"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/mailer"
	"github.com/tortasnery/storefront/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	mock := flag.Int("mock", 0, "number of sample orders to create after setup (0 skips)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.AutoMigrateModels(ctx, dbClient))

	categoriesSvc, err := categories.NewService(categories.NewRepository(dbClient.DB()), dbClient)
	requireResource(ctx, logg, "categories service", err)
	productsSvc, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, categoriesSvc, logg)
	requireResource(ctx, logg, "products service", err)
	settingsSvc, err := settings.NewService(settings.NewRepository(dbClient.DB()), nil, settings.Settings{StoreName: cfg.Store.Name}, logg)
	requireResource(ctx, logg, "settings service", err)
	ordersSvc, err := orders.NewService(orders.Deps{
		Repo:   orders.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Mailer: mailer.NewLogSender(logg),
		Store:  cfg.Store,
		Logger: logg,
	})
	requireResource(ctx, logg, "orders service", err)
	authSvc, err := auth.NewService(auth.ServiceParams{
		Users:     users.NewRepository(dbClient.DB()),
		JWTConfig: cfg.JWT,
		Password:  cfg.Password,
		Logger:    logg,
	})
	requireResource(ctx, logg, "auth service", err)

	seeder := &seed.Seeder{
		Categories:    categoriesSvc,
		Products:      productsSvc,
		Settings:      settingsSvc,
		Orders:        ordersSvc,
		Auth:          authSvc,
		AdminEmail:    cfg.Admin.BootstrapEmail,
		AdminPassword: cfg.Admin.BootstrapPassword,
		Logger:        logg,
	}

	report, err := seeder.Setup(ctx)
	if err != nil {
		logg.Error(ctx, "seed setup finished with errors", err)
	}
	printJSON(report)

	if *mock > 0 {
		created, err := seeder.Mock(ctx, *mock)
		if err != nil {
			logg.Error(ctx, "mock orders failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "orders", len(created)), "mock orders created")
	}
	if err != nil {
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
