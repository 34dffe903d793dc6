package jobs

import (
	"time"

	"kiosk-inventory-backend/internal/config"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/notify"
	"kiosk-inventory-backend/internal/repository"
	"kiosk-inventory-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all dependencies needed by jobs
type Services struct {
	Transactions service.TransactionService
	Coordinator  service.ReservationCoordinator
	Stock        repository.StockRepository
	Notifier     notify.Notifier
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	if services.Notifier == nil {
		services.Notifier = notify.Discard
	}
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.ReconcileStock()
	jr.CheckOverdueTransactions()
}
