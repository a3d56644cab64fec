package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adsjeddah/ads-sub002/api/routes"
	"github.com/adsjeddah/ads-sub002/internal/admins"
	"github.com/adsjeddah/ads-sub002/internal/adrequests"
	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/internal/directory"
	"github.com/adsjeddah/ads-sub002/internal/invoices"
	"github.com/adsjeddah/ads-sub002/internal/payments"
	"github.com/adsjeddah/ads-sub002/internal/plans"
	"github.com/adsjeddah/ads-sub002/internal/pricing"
	"github.com/adsjeddah/ads-sub002/internal/subscriptions"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/db"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/metrics"
	"github.com/adsjeddah/ads-sub002/pkg/migrate"
	"github.com/adsjeddah/ads-sub002/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	reconcileMetrics := metrics.NewReconcileMetrics(prometheus.DefaultRegisterer)

	billingSvc := billing.NewService(
		billing.NewRepository(gormDB),
		dbClient,
		logg,
		reconcileMetrics,
		cfg.Cron.AuditSize,
	)
	invoiceSvc := invoices.NewService(invoices.NewRepository(gormDB), dbClient, logg, cfg.Billing)
	advertiserSvc := advertisers.NewService(advertisers.NewRepository(gormDB), logg)
	subscriptionSvc := subscriptions.NewService(
		subscriptions.NewRepository(gormDB),
		invoiceSvc,
		advertiserSvc,
		billingSvc,
		logg,
	)
	paymentSvc := payments.NewService(payments.NewRepository(gormDB), dbClient, billingSvc, logg)
	resolver := pricing.NewResolver()
	planSvc := plans.NewService(plans.NewRepository(gormDB), resolver, logg)
	directorySvc := directory.NewService(directory.NewRepository(gormDB), logg)
	adRequestSvc := adrequests.NewService(adrequests.NewRepository(gormDB), advertiserSvc, logg)
	adminSvc := admins.NewService(admins.NewRepository(gormDB), cfg.JWT, cfg.Password, logg)

	router := routes.NewRouter(cfg, logg,
		routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
		},
		routes.Services{
			Admins:        adminSvc,
			Directory:     directorySvc,
			AdRequests:    adRequestSvc,
			Advertisers:   advertiserSvc,
			Plans:         planSvc,
			Subscriptions: subscriptionSvc,
			Payments:      paymentSvc,
			Invoices:      invoiceSvc,
			Reconcile:     billingSvc,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shut down")
}
