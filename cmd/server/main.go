package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"lethe/internal/anonymizer"
	"lethe/internal/bootstrap"
	"lethe/internal/consent"
	"lethe/internal/engine"
	"lethe/internal/entity"
	"lethe/internal/jwttoken"
	"lethe/internal/platform/config"
	"lethe/internal/platform/httpserver"
	"lethe/internal/platform/logger"
	"lethe/internal/platform/metrics"
	platformredis "lethe/internal/platform/redis"
	"lethe/internal/purpose"
	"lethe/internal/storage"
	"lethe/internal/sweeper"
	httptransport "lethe/internal/transport/http"
	"lethe/internal/vault"
	"lethe/pkg/platform/audit"
	"lethe/pkg/platform/tx"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var (
		consentStore consent.Store
		flagStore    consent.FlagStore
		txRunner     consent.TxRunner
		anonVault    anonymizer.Vault
		loader       entity.Loader
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			return err
		}
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		consentStore = consent.NewPostgresStore(db)
		flagStore = consent.NewPostgresFlagStore(db)
		txRunner = tx.NewRunner(db)
		anonVault = vault.NewPostgres(db)
		pgLoader := storage.NewPostgresLoader(pool, db)
		if err := bootstrap.MapTables(pgLoader); err != nil {
			return err
		}
		loader = pgLoader
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		consentStore = consent.NewMemoryStore()
		flagStore = consent.NewMemoryFlagStore()
		txRunner = consent.NopTxRunner{}
		anonVault = vault.NewMemory()
		loader = bootstrap.SeedMemoryLoader()
	}

	registry, err := bootstrap.BuildRegistry(anonVault)
	if err != nil {
		return err
	}

	var catalog *purpose.Catalog
	if cfg.PurposesFile != "" {
		catalog, err = purpose.LoadFile(cfg.PurposesFile, registry)
	} else {
		catalog, err = bootstrap.DefaultPurposes(registry)
	}
	if err != nil {
		return err
	}

	auditStore, closeAudit, err := bootstrap.NewAuditStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := audit.NewPublisher(auditStore, log, audit.WithAsyncBuffer(1024))
	defer publisher.Close()

	eng := engine.New(registry, catalog, consentStore, flagStore,
		cfg.AnonymizationSecret, log, engine.WithMetrics(m))
	consentSvc := consent.NewService(catalog, consentStore, eng, txRunner, log,
		consent.WithAudit(publisher))

	sweepOpts := []sweeper.Option{
		sweeper.WithMetrics(m),
		sweeper.WithAudit(publisher),
		sweeper.WithParallelism(cfg.SweepParallelism),
	}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sweepOpts = append(sweepOpts, sweeper.WithLocker(sweeper.NewRedisLocker(redisClient)))
	}
	sweep := sweeper.New(consentStore, eng, loader, txRunner, log, sweepOpts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "lethe", "lethe-api")
	handler := httptransport.NewHandler(consentSvc, eng, sweep, loader, log, m)
	router := httptransport.NewRouter(handler, jwtService)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting lethe", slog.String("addr", cfg.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
