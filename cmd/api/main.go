package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tortasnery/storefront/api/controllers"
	"github.com/tortasnery/storefront/api/routes"
	"github.com/tortasnery/storefront/internal/auth"
	"github.com/tortasnery/storefront/internal/cart"
	"github.com/tortasnery/storefront/internal/categories"
	"github.com/tortasnery/storefront/internal/dashboard"
	"github.com/tortasnery/storefront/internal/events"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/products"
	"github.com/tortasnery/storefront/internal/seed"
	"github.com/tortasnery/storefront/internal/settings"
	"github.com/tortasnery/storefront/internal/users"
	"github.com/tortasnery/storefront/pkg/auth/session"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/kafka"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/mailer"
	"github.com/tortasnery/storefront/pkg/metrics"
	"github.com/tortasnery/storefront/pkg/migrate"
	"github.com/tortasnery/storefront/pkg/pubsub"
	"github.com/tortasnery/storefront/pkg/redis"
	"github.com/tortasnery/storefront/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	var closers []func() error
	release := func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		closers = nil
		if errs != nil {
			logg.Error(context.Background(), "error releasing resources", errs)
		}
	}
	defer release()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	closers = append(closers, dbClient.Close)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	closers = append(closers, redisClient.Close)

	sessionManager, err := session.NewManager(redisClient)
	requireResource(ctx, logg, "session manager", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	orderMetrics := metrics.NewOrderMetrics(reg)

	health := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	var publisher events.Publisher
	switch cfg.Events.NormalizedDriver() {
	case config.EventsDriverPubSub:
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		closers = append(closers, psClient.Close)
		health["pubsub"] = psClient
		publisher = events.NewEmitter(events.NewPubSubSink(psClient), cfg.Events.Producer, logg)
	case config.EventsDriverKafka:
		producer, err := kafka.NewProducer(cfg.Kafka, logg)
		requireResource(ctx, logg, "kafka", err)
		producer.Start(ctx)
		closers = append(closers, func() error {
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return producer.Close(drainCtx)
		})
		publisher = events.NewEmitter(events.NewKafkaSink(producer), cfg.Events.Producer, logg)
	}

	var uploader gcs.Uploader
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		requireResource(ctx, logg, "gcs", err)
		closers = append(closers, gcsClient.Close)
		health["storage"] = gcsClient
		uploader = gcsClient
	}

	usersSvc, err := users.NewService(users.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "users service", err)

	authSvc, err := auth.NewService(auth.ServiceParams{
		Users:     users.NewRepository(dbClient.DB()),
		Sessions:  sessionManager,
		JWTConfig: cfg.JWT,
		Password:  cfg.Password,
		Logger:    logg,
	})
	requireResource(ctx, logg, "auth service", err)

	categoriesSvc, err := categories.NewService(categories.NewRepository(dbClient.DB()), dbClient)
	requireResource(ctx, logg, "categories service", err)

	productsSvc, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, categoriesSvc, logg)
	requireResource(ctx, logg, "products service", err)

	cartSvc, err := cart.NewService(cart.NewRedisRepository(redisClient, cfg.Cart.TTL, logg), productsSvc, logg)
	requireResource(ctx, logg, "cart service", err)

	ordersSvc, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Mailer:    mailer.New(cfg.Sendgrid, logg),
		Events:    publisher,
		Cache:     redisClient,
		CacheKeys: []string{dashboard.StatsCacheKey(redisClient)},
		Metrics:   orderMetrics,
		Store:     cfg.Store,
		Logger:    logg,
	})
	requireResource(ctx, logg, "orders service", err)
	closers = append(closers, func() error {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return ordersSvc.Drain(drainCtx)
	})

	dashboardSvc, err := dashboard.NewService(dashboard.NewRepository(dbClient.DB()), ordersSvc, redisClient, cfg.Dashboard.CacheTTL, logg)
	requireResource(ctx, logg, "dashboard service", err)

	settingsSvc, err := settings.NewService(settings.NewRepository(dbClient.DB()), uploader, settings.Settings{
		StoreName:    cfg.Store.Name,
		ContactEmail: cfg.Store.AdminEmail,
		ContactPhone: "+51 997 935 991",
		Address:      "Av. Ejemplo 123, Lima",
	}, logg)
	requireResource(ctx, logg, "settings service", err)

	if cfg.FeatureFlags.AutoSeed {
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
			logg.Error(ctx, "auto seed finished with errors", err)
		} else {
			logg.Info(logg.WithField(ctx, "products_created", report.ProductsCreated), "auto seed complete")
		}
	} else if _, err := authSvc.Bootstrap(ctx, cfg.Admin.BootstrapEmail, cfg.Admin.BootstrapPassword); err != nil {
		logg.Error(ctx, "failed to bootstrap admin user", err)
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:     cfg,
			Logger:     logg,
			Health:     health,
			Redis:      redisClient,
			Sessions:   sessionManager,
			Gatherer:   reg,
			HTTP:       httpMetrics,
			Auth:       authSvc,
			Users:      usersSvc,
			Products:   productsSvc,
			Categories: categoriesSvc,
			Cart:       cartSvc,
			Orders:     ordersSvc,
			Dashboard:  dashboardSvc,
			Settings:   settingsSvc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server stopped unexpectedly: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server exited", err)
		stop()
		release()
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
