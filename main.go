package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/crypto"
	"userapi/internal/logging"
	"userapi/internal/repository"
	"userapi/internal/server"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	bootstrap, err := logging.NewBootstrapLogger()
	if err != nil {
		panic(err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}

	logger, err := logging.NewLogger(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", zap.Error(err))
	}
	_ = bootstrap.Sync()
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	if err := logging.InitSentry(cfg.Sentry.DSN, cfg.App.Env); err != nil {
		logger.Warn("Sentry disabled", zap.Error(err))
	}
	defer logging.FlushSentry()

	// Database connection
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(db, logger)
	hasher := crypto.NewPasswordHasher(crypto.DefaultParams)

	srv, err := server.NewServer(cfg, db, users, hasher, logger)
	if err != nil {
		logger.Fatal("Failed to set up server", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Application stopped.")
}
