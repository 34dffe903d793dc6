package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	api "kiosk-inventory-backend/internal/api/grpc"
	"kiosk-inventory-backend/internal/api/grpc/interceptor"
	httpapi "kiosk-inventory-backend/internal/api/http"
	"kiosk-inventory-backend/internal/app"
	"kiosk-inventory-backend/internal/config"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Kiosk Inventory Engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Inventory configuration",
		"driver", cfg.Database.Driver,
		"lock_timeout", cfg.LockTimeout(),
		"penalty_per_day_cents", cfg.Inventory.PenaltyPerDayCents)

	ctx := context.Background()

	// Initialize Store
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Initialize Notifications
	notifier, closeNotifier, err := app.NewNotifier(cfg)
	if err != nil {
		logger.Error("Failed to initialize notifications", "error", err)
		log.Fatalf("Failed to initialize notifications: %v", err)
	}
	defer closeNotifier()

	// Initialize Services
	engine := app.NewEngine(store, notifier, cfg, nil)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor.Unary()),
	)
	api.RegisterInventoryServer(s, api.NewInventoryHandler(engine.Ledger, engine.Transactions, engine.Maintenance))

	// Register reflection service for grpcurl
	reflection.Register(s)

	// Set up HTTP status API
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           httpapi.NewRouter(engine.Ledger, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP status API listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		if err := s.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	s.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
