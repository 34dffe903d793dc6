package repository

import (
	"context"
	"time"

	"kiosk-inventory-backend/internal/domain"
)

// EquipmentCatalog is the read-only equipment list owned by the admin side
type EquipmentCatalog interface {
	GetByID(ctx context.Context, equipmentID string) (*domain.Equipment, error)
}

type StockRepository interface {
	// GetForUpdate loads the row and holds its lock until the unit of work
	// ends. Returns domain.ErrNotFound when the row was never bootstrapped.
	GetForUpdate(ctx context.Context, equipmentID string) (*domain.StockRecord, error)
	Get(ctx context.Context, equipmentID string) (*domain.StockRecord, error)
	// Insert creates the row unless another writer created it first
	Insert(ctx context.Context, rec *domain.StockRecord) error
	Save(ctx context.Context, rec *domain.StockRecord) error
	ListEquipmentIDs(ctx context.Context) ([]string, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.BorrowTransaction) error
	GetByID(ctx context.Context, id int64) (*domain.BorrowTransaction, error)
	Update(ctx context.Context, tx *domain.BorrowTransaction) error
	ListOverdue(ctx context.Context, now time.Time) ([]domain.BorrowTransaction, error)
}

// TicketFilter narrows ListMaintenanceTickets; zero values match everything
type TicketFilter struct {
	EquipmentID string
	Status      domain.MaintenanceStatus
}

type MaintenanceRepository interface {
	Create(ctx context.Context, ticket *domain.MaintenanceTicket) error
	GetByID(ctx context.Context, id int64) (*domain.MaintenanceTicket, error)
	Update(ctx context.Context, ticket *domain.MaintenanceTicket) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.MaintenanceTicket, error)
	Statistics(ctx context.Context) (*domain.MaintenanceStats, error)
}

// UnitOfWork exposes the repositories bound to one locked critical
// section. Writes become visible together when the section returns nil and
// are discarded otherwise.
type UnitOfWork interface {
	Stock() StockRepository
	Transactions() TransactionRepository
	Maintenance() MaintenanceRepository
}

// EquipmentLocker provides the per-equipment exclusive critical section.
// Sections for different equipment ids never block each other. A lock that
// cannot be taken within the configured wait fails with domain.ErrBusy.
type EquipmentLocker interface {
	WithEquipmentLock(ctx context.Context, equipmentID string, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// Store is a backing store: the locker plus repositories usable outside a
// critical section
type Store interface {
	EquipmentLocker
	UnitOfWork
	Catalog() EquipmentCatalog
}
