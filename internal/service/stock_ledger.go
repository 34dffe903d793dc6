package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

type stockLedger struct {
	catalog         repository.EquipmentCatalog
	stockRepo       repository.StockRepository
	defaultMinStock domain.Quantity
	clock           Clock
}

func NewStockLedger(catalog repository.EquipmentCatalog, stockRepo repository.StockRepository, defaultMinStock domain.Quantity, clock Clock) StockLedger {
	if defaultMinStock < 1 {
		defaultMinStock = 1
	}
	return &stockLedger{
		catalog:         catalog,
		stockRepo:       stockRepo,
		defaultMinStock: defaultMinStock,
		clock:           clock,
	}
}

// LoadForUpdate returns the locked row, bootstrapping it from the catalog's
// base quantity the first time the equipment is touched. Counters are
// normalised before the caller sees them.
func (l *stockLedger) LoadForUpdate(ctx context.Context, uow repository.UnitOfWork, equipmentID string) (*domain.StockRecord, error) {
	rec, err := uow.Stock().GetForUpdate(ctx, equipmentID)
	if errors.Is(err, domain.ErrNotFound) {
		if err := l.bootstrap(ctx, uow, equipmentID); err != nil {
			return nil, err
		}
		rec, err = uow.Stock().GetForUpdate(ctx, equipmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load stock %s: %w", equipmentID, err)
	}

	for _, c := range rec.Normalize() {
		logger.IntegrityWarning(equipmentID, c.Field, int64(c.Value))
	}
	stored := rec.AvailableQuantity
	rec.Recompute()
	if stored != rec.AvailableQuantity {
		logger.IntegrityWarning(equipmentID, "available_quantity", int64(stored))
	}
	return rec, nil
}

func (l *stockLedger) bootstrap(ctx context.Context, uow repository.UnitOfWork, equipmentID string) error {
	eq, err := l.catalog.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("equipment %s: %w", equipmentID, domain.ErrNotFound)
		}
		return err
	}

	rec := domain.NewStockRecord(eq, l.defaultMinStock)
	now := l.clock.now()
	rec.CreatedAt, rec.LastUpdated = now, now
	if err := uow.Stock().Insert(ctx, rec); err != nil {
		return fmt.Errorf("bootstrap stock %s: %w", equipmentID, err)
	}
	logger.Info("Stock row bootstrapped from catalog", "equipment_id", equipmentID, "total_quantity", rec.TotalQuantity)
	return nil
}

// Persist recomputes the derived fields and writes the row. LastUpdated
// never moves backwards, even when the wall clock does.
func (l *stockLedger) Persist(ctx context.Context, uow repository.UnitOfWork, rec *domain.StockRecord) error {
	rec.Recompute()
	now := l.clock.now()
	if !now.After(rec.LastUpdated) {
		now = rec.LastUpdated.Add(time.Microsecond)
	}
	rec.LastUpdated = now
	return uow.Stock().Save(ctx, rec)
}

// Snapshot reads without locking. Equipment with no row yet is reported as
// its bootstrap view; nothing is written.
func (l *stockLedger) Snapshot(ctx context.Context, equipmentID string) (*domain.StockRecord, error) {
	rec, err := l.stockRepo.Get(ctx, equipmentID)
	if err == nil {
		rec.Recompute()
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	eq, err := l.catalog.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("equipment %s: %w", equipmentID, domain.ErrNotFound)
		}
		return nil, err
	}
	return domain.NewStockRecord(eq, l.defaultMinStock), nil
}
