package jobs

import (
	"context"
	"errors"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/service"
)

// ReconcileStock recomputes available quantity and status for every stock
// row under its lock. A failure on one row does not stop the sweep.
func (jr *JobRunner) ReconcileStock() {
	jr.runWithRecovery("ReconcileStock", func() {
		done, failed, err := jr.reconcileStock(context.Background())
		if err != nil {
			logger.Error("Failed to reconcile stock", "error", err)
			return
		}
		logger.Info("Stock reconciled", "rows", done, "failed", failed)
	})
}

func (jr *JobRunner) reconcileStock(ctx context.Context) (done, failed int, err error) {
	ids, err := jr.services.Stock.ListEquipmentIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	retries := 0
	if jr.config != nil {
		retries = jr.config.Inventory.BusyRetries
	}

	for _, id := range ids {
		err := service.RetryOnBusy(ctx, retries, func() error {
			_, err := jr.services.Coordinator.Reconcile(ctx, id)
			return err
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return done, failed, err
			}
			if errors.Is(err, domain.ErrBusy) {
				logger.Warn("Stock row still locked, skipped", "equipment_id", id, "error", err)
			} else {
				logger.Error("Failed to reconcile stock row", "equipment_id", id, "error", err)
			}
			failed++
			continue
		}
		done++
	}
	return done, failed, nil
}
