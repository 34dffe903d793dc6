package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"kiosk-inventory-backend/internal/jobs"
	"kiosk-inventory-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Recompute every stock row before the morning overdue scan
	_, err := s.cron.AddFunc(cfg.ReconcileStock, s.jobs.ReconcileStock)
	if err != nil {
		logger.Error("Failed to register ReconcileStock job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.CheckOverdueTransactions, s.jobs.CheckOverdueTransactions)
	if err != nil {
		logger.Error("Failed to register CheckOverdueTransactions job", "error", err)
	}

	logger.Info("All cron jobs registered successfully", "entries", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
