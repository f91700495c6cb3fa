package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mall-parking/internal/config"
	"mall-parking/internal/logging"
	"mall-parking/internal/parking"
	"mall-parking/internal/report"
	"mall-parking/internal/storage/memory"
	"mall-parking/internal/storage/postgres"
	"mall-parking/internal/storage/redis"
)

// app is everything a command needs, built from one config.
type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	store     parking.Store
	locker    parking.Locker
	lot       *parking.InstrumentedParkingLot
	reports   *report.Reporter
	closers   []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a := &app{cfg: cfg}

	if cfg.OTelEnabled {
		a.telemetry, err = parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
			ServiceName:  cfg.OTelServiceName,
			OTLPEndpoint: cfg.OTelEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	} else {
		a.telemetry = parking.NewNoopTelemetryProvider()
	}

	logging.Init(logging.Options{
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Environment,
		Debug:       cfg.IsDevelopment(),
	})

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.openLocker(ctx); err != nil {
		a.close()
		return nil, err
	}

	lot := parking.NewParkingLot(
		a.store,
		a.locker,
		parking.NewPricingCache(a.store, cfg.PricingCacheTTL),
		parking.WithLockTTL(cfg.LockTTL),
	)
	if err := lot.EnsureDefaults(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	a.lot, err = parking.NewInstrumentedParkingLot(lot, a.telemetry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	a.reports = report.NewReporter(a.store)

	logging.Info(ctx, "parking lot ready",
		"store", cfg.StoreDriver,
		"lock", cfg.LockDriver,
		"version", version,
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StorePostgres:
		store, err := openPostgres(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		a.store = memory.New()
	}
	return nil
}

func (a *app) openLocker(ctx context.Context) error {
	switch a.cfg.LockDriver {
	case config.LockRedis:
		locker, err := redis.Open(ctx, redis.Config{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.locker = locker
		a.closers = append(a.closers, locker.Close)
	default:
		a.locker = memory.NewLocker()
	}
	return nil
}

func openPostgres(ctx context.Context, databaseURL string) (*postgres.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := postgres.Open(connectCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return store, nil
}

// close releases backends in reverse order, then flushes telemetry.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.telemetry.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}
