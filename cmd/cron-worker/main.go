package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/internal/cron"
	"github.com/adsjeddah/ads-sub002/internal/invoices"
	"github.com/adsjeddah/ads-sub002/internal/subscriptions"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/db"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/metrics"
	"github.com/adsjeddah/ads-sub002/pkg/migrate"
	"github.com/adsjeddah/ads-sub002/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

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

	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cron.NewReconciliationAuditJob(billingSvc, logg),
		cron.NewSubscriptionExpiryJob(subscriptionSvc, logg),
		cron.NewInvoiceOverdueJob(invoiceSvc, logg),
		cron.NewCoverageRefreshJob(advertiserSvc, logg),
	)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
