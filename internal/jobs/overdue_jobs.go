package jobs

import (
	"context"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
)

// CheckOverdueTransactions emits a ReturnOverdue event for every Active
// transaction past its expected return time. No state changes.
func (jr *JobRunner) CheckOverdueTransactions() {
	jr.runWithRecovery("CheckOverdueTransactions", func() {
		count, err := jr.checkOverdue(context.Background())
		if err != nil {
			logger.Error("Failed to check overdue transactions", "error", err)
			return
		}
		logger.Info("Overdue transactions reported", "count", count)
	})
}

func (jr *JobRunner) checkOverdue(ctx context.Context) (int, error) {
	now := jr.now()
	overdue, err := jr.services.Transactions.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, tx := range overdue {
		ev := domain.NewEvent(domain.EventReturnOverdue, tx.EquipmentID, now)
		ev.TransactionID = tx.ID
		ev.ActorID = tx.ActorID
		ev.DaysOverdue = domain.DaysLate(tx.ExpectedReturnAt, now)
		jr.services.Notifier.Notify(ctx, ev)

		logger.Debug("Transaction overdue",
			"transaction_id", tx.ID,
			"equipment_id", tx.EquipmentID,
			"actor_id", tx.ActorID,
			"days_overdue", ev.DaysOverdue)
	}
	return len(overdue), nil
}
