package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kiosk-inventory-backend/internal/app"
	"kiosk-inventory-backend/internal/config"
	"kiosk-inventory-backend/internal/jobs"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'check-overdue-transactions', 'reconcile-stock', 'all-daily')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Inventory Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Store
	store, closeStore, err := app.OpenStore(context.Background(), cfg)
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

	jobServices := &jobs.Services{
		Transactions: engine.Transactions,
		Coordinator:  engine.Coordinator,
		Stock:        store.Stock(),
		Notifier:     notifier,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			closeNotifier()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once; false for an unknown job name
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "check-overdue-transactions":
		jobRunner.CheckOverdueTransactions()
	case "reconcile-stock":
		jobRunner.ReconcileStock()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - check-overdue-transactions\n")
		fmt.Printf("  - reconcile-stock\n")
		fmt.Printf("  - all-daily\n")
		return false
	}
	return true
}
