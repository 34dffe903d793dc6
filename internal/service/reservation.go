package service

import (
	"context"
	"errors"
	"log/slog"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/notify"
	"kiosk-inventory-backend/internal/repository"
)

type reservationCoordinator struct {
	locker   repository.EquipmentLocker
	ledger   StockLedger
	notifier notify.Notifier
	clock    Clock
	log      *slog.Logger
}

func NewReservationCoordinator(locker repository.EquipmentLocker, ledger StockLedger, notifier notify.Notifier, clock Clock) ReservationCoordinator {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &reservationCoordinator{
		locker:   locker,
		ledger:   ledger,
		notifier: notifier,
		clock:    clock,
		log:      logger.WithService("reservation"),
	}
}

func (c *reservationCoordinator) ReserveForBorrow(ctx context.Context, equipmentID string, qty domain.Quantity, opts ...MutationOption) (*domain.StockRecord, error) {
	if _, err := domain.PositiveQuantity("quantity", int64(qty)); err != nil {
		return nil, err
	}
	return c.mutate(ctx, equipmentID, "reserve_for_borrow", func(rec *domain.StockRecord) error {
		if qty > rec.AvailableQuantity {
			return &domain.InsufficientStockError{EquipmentID: equipmentID, Requested: qty, Available: rec.AvailableQuantity}
		}
		rec.BorrowedQuantity += qty
		return nil
	}, opts)
}

// ReleaseFromReturn gives borrowed units back. A damaged return records one
// damaged unit per return event, whatever the borrowed quantity, so that
// unit stays out of the available pool.
func (c *reservationCoordinator) ReleaseFromReturn(ctx context.Context, equipmentID string, qty domain.Quantity, damaged bool, opts ...MutationOption) (*domain.StockRecord, error) {
	if _, err := domain.PositiveQuantity("quantity", int64(qty)); err != nil {
		return nil, err
	}
	return c.mutate(ctx, equipmentID, "release_from_return", func(rec *domain.StockRecord) error {
		borrowed := rec.BorrowedQuantity - qty
		if borrowed < 0 {
			logger.IntegrityWarning(equipmentID, "borrowed_quantity", int64(borrowed))
			borrowed = 0
		}
		rec.BorrowedQuantity = borrowed
		if damaged {
			rec.DamagedQuantity++
		}
		return nil
	}, opts)
}

// ApplyMaintenanceDelta moves units into (delta > 0) or out of (delta < 0)
// the maintenance pool. A zero delta only rewrites the row.
func (c *reservationCoordinator) ApplyMaintenanceDelta(ctx context.Context, equipmentID string, delta domain.Quantity, opts ...MutationOption) (*domain.StockRecord, error) {
	return c.mutate(ctx, equipmentID, "apply_maintenance_delta", func(rec *domain.StockRecord) error {
		if delta > 0 && delta > rec.AvailableQuantity {
			return &domain.InsufficientStockError{EquipmentID: equipmentID, Requested: delta, Available: rec.AvailableQuantity}
		}
		maintenance := rec.MaintenanceQuantity + delta
		if maintenance < 0 {
			logger.IntegrityWarning(equipmentID, "maintenance_quantity", int64(maintenance))
			maintenance = 0
		}
		rec.MaintenanceQuantity = maintenance
		return nil
	}, opts)
}

// Reconcile rewrites the row from its counters, repairing drift
func (c *reservationCoordinator) Reconcile(ctx context.Context, equipmentID string) (*domain.StockRecord, error) {
	return c.mutate(ctx, equipmentID, "reconcile", func(*domain.StockRecord) error { return nil }, nil)
}

func (c *reservationCoordinator) mutate(ctx context.Context, equipmentID, op string, change func(rec *domain.StockRecord) error, opts []MutationOption) (*domain.StockRecord, error) {
	if equipmentID == "" {
		return nil, domain.NewValidationError("equipment_id", "is required")
	}
	m := &mutation{}
	for _, opt := range opts {
		opt(m)
	}

	var (
		before domain.AvailabilityStatus
		after  *domain.StockRecord
	)
	err := c.locker.WithEquipmentLock(ctx, equipmentID, func(ctx context.Context, uow repository.UnitOfWork) error {
		rec, err := c.ledger.LoadForUpdate(ctx, uow, equipmentID)
		if err != nil {
			return err
		}
		before = rec.AvailabilityStatus

		if err := change(rec); err != nil {
			return err
		}
		if m.condition != "" {
			rec.ItemCondition = m.condition
		}
		if err := c.ledger.Persist(ctx, uow, rec); err != nil {
			return err
		}
		for _, followup := range m.followups {
			if err := followup(ctx, uow); err != nil {
				return err
			}
		}
		after = rec
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusy):
			logger.LockContention(equipmentID, err)
		case errors.Is(err, domain.ErrInsufficientStock):
			c.log.Info("Stock request refused", "op", op, "equipment_id", equipmentID, "error", err)
		}
		return nil, err
	}

	c.log.Info("Stock updated", "op", op, "equipment_id", equipmentID,
		"available", after.AvailableQuantity, "borrowed", after.BorrowedQuantity,
		"damaged", after.DamagedQuantity, "maintenance", after.MaintenanceQuantity,
		"status", after.AvailabilityStatus)

	if !before.IsShort() && after.AvailabilityStatus.IsShort() {
		ev := domain.NewEvent(domain.EventLowStockReached, equipmentID, c.clock.now())
		ev.Available = after.AvailableQuantity
		ev.Status = after.AvailabilityStatus
		c.notifier.Notify(ctx, ev)
	}
	return after, nil
}
