package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/db"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/registry"
	"github.com/hamedafzali/bot-manager/pkg/utils"
	"github.com/hamedafzali/bot-manager/pkg/webserver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := log.Init(&cfg.Logging); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	logger.Info("Starting Bot Manager")
	logger.WithField("version", "1.0.0").Info("Server initialization")

	// Initialize database
	logger.Info("Connecting to database...")
	database, err := db.New(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database connection")
		}
	}()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := database.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Credentials-at-rest encryption is optional
	var enc *utils.Encryption
	if cfg.Security.EncryptionKey != "" {
		enc, err = utils.NewEncryption(cfg.Security.EncryptionKey)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize encryption")
		}
		logger.Info("Credentials encryption enabled")
	}

	// Initialize the bot registry
	factory := connections.NewFactory(cfg.Connections, logger)
	repo := db.NewRepository(database)
	reg := registry.NewManager(repo, factory, logger, enc)

	// Initialize web server
	logger.Info("Initializing web server...")
	server, err := webserver.New(cfg, database, reg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize web server")
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("address", cfg.Server.GetServerAddr()).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.GracefulStop)*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Application exited gracefully")
}
