package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"

	"github.com/effectiveacceleration/marketplace/config"
	"github.com/effectiveacceleration/marketplace/internal/app"
	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/events"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/internal/services"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	logger.InitializeAndConfigure(cfg.LogLevel)

	// Initialize database
	gdb, err := db.New(db.Options{
		Host:       cfg.DB.Host,
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		DBName:     cfg.DB.Name,
		Port:       cfg.DB.Port,
		SSLEnabled: &cfg.DB.SSLEnabled,
		LogLevel:   gormlogger.Warn,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info("Database connected successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Committed job events go to the structured log
	bus := events.NewBus(events.EventChannelSize)
	bus.SubscribeAll(events.LogHandler)
	bus.Start(ctx)

	ledger := escrow.NewLedger(gdb)
	registry := services.NewJobRegistry(gdb, ledger, services.Config{
		FeeBps:               cfg.FeeBps,
		Treasury:             cfg.Treasury,
		CollateralLockPeriod: cfg.CollateralLockPeriod,
	}, services.WithBus(bus))

	var wg sync.WaitGroup
	wg.Add(1)
	go services.LaunchWorker(ctx, &wg, registry, services.DefaultWatchInterval)

	fiberApp := app.NewApp(app.Options{
		DB:              gdb,
		Registry:        registry,
		Ledger:          ledger,
		FaucetEnabled:   cfg.FaucetEnabled,
		SignatureWindow: cfg.SignatureWindow,
		Swagger:         true,
	})
	if cfg.FaucetEnabled {
		logger.Warn("Faucet enabled: balance.deposit credits any caller")
	}

	// Start server
	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := fiberApp.Shutdown(); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()
	wg.Wait()
	logger.Info("Server exited")
}
