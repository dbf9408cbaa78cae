package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"starledger/internal/config"
	"starledger/internal/db"
	"starledger/internal/economy"
	"starledger/internal/idempotency"
	"starledger/internal/logger"
	"starledger/internal/rules"
	"starledger/internal/server"
	"starledger/internal/wallet"
)

// @title Star Ledger API
// @version 1.0
// @description Star currency ledger: balances, earning rules and spending.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting star ledger")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo     wallet.Repository
		database *sqlx.DB
	)
	switch cfg.Store {
	case config.StorePostgres:
		logger.Info("Connecting to database...")
		database, err = db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		logger.Info("Database connected")

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")
		repo = wallet.NewPostgresRepository(database, cfg.SignupGrant)
	default:
		logger.Warn("Using in-memory store, balances are lost on restart")
		repo = wallet.NewMemoryRepository(cfg.SignupGrant)
	}

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		client, err := idempotency.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		idem = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
		logger.Info("Idempotency keys stored in redis", "addr", cfg.RedisAddr)
	} else {
		mem := idempotency.NewMemoryStore(cfg.IdempotencyTTL)
		go mem.Run(ctx, time.Minute)
		idem = mem
	}

	registry := rules.NewDefaultRegistry()
	if cfg.RulesFile != "" {
		registry, err = rules.LoadFile(cfg.RulesFile)
		if err != nil {
			logger.Fatalf("Failed to load rules: %v", err)
		}
	}
	logger.Info("Earning rules loaded", "count", len(registry.List(true)))

	svc := economy.NewService(repo, registry, idem, economy.Options{DailyCapMode: cfg.DailyCapMode})

	reconciler := economy.NewReconciler(repo)
	if cfg.ReconcileSchedule != "" {
		if err := reconciler.Start(cfg.ReconcileSchedule); err != nil {
			logger.Fatalf("Failed to schedule reconciliation: %v", err)
		}
		defer reconciler.Stop()
		logger.Info("Reconciliation scheduled", "schedule", cfg.ReconcileSchedule)
	}

	var pinger server.Pinger
	if database != nil {
		pinger = database
	}
	srv := server.New(cfg, economy.NewHandler(svc), pinger)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
