package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"lethe/internal/bootstrap"
	"lethe/internal/consent"
	"lethe/internal/engine"
	"lethe/internal/platform/config"
	"lethe/internal/platform/logger"
	"lethe/internal/platform/metrics"
	platformredis "lethe/internal/platform/redis"
	"lethe/internal/purpose"
	"lethe/internal/storage"
	"lethe/internal/sweeper"
	"lethe/internal/vault"
	"lethe/pkg/platform/audit"
	"lethe/pkg/platform/tx"
)

var errMissingDatabase = errors.New("DATABASE_URL is required for the sweeper")

// The sweeper binary runs the retention sweep either once (-once) or on the
// configured interval. It shares its wiring with the server.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log, *once); err != nil {
		log.Error("sweeper exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger, once bool) error {
	if cfg.DatabaseURL == "" {
		return errMissingDatabase
	}
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

	registry, err := bootstrap.BuildRegistry(vault.NewPostgres(db))
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

	loader := storage.NewPostgresLoader(pool, db)
	if err := bootstrap.MapTables(loader); err != nil {
		return err
	}
	consentStore := consent.NewPostgresStore(db)
	flagStore := consent.NewPostgresFlagStore(db)
	txRunner := tx.NewRunner(db)

	auditStore, closeAudit, err := bootstrap.NewAuditStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := audit.NewPublisher(auditStore, log)
	defer publisher.Close()

	m := metrics.New()
	eng := engine.New(registry, catalog, consentStore, flagStore,
		cfg.AnonymizationSecret, log, engine.WithMetrics(m))

	opts := []sweeper.Option{
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
		opts = append(opts, sweeper.WithLocker(sweeper.NewRedisLocker(redisClient)))
	}
	sweep := sweeper.New(consentStore, eng, loader, txRunner, log, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		_, err := sweep.Run(ctx)
		return err
	}
	return sweeper.Loop(ctx, sweep, cfg.SweepInterval, log)
}
