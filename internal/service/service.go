package service

import (
	"context"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
)

// Clock returns the current time; nil means time.Now
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// StockLedger loads and persists quantity records. LoadForUpdate and
// Persist must run inside a critical section.
type StockLedger interface {
	LoadForUpdate(ctx context.Context, uow repository.UnitOfWork, equipmentID string) (*domain.StockRecord, error)
	Persist(ctx context.Context, uow repository.UnitOfWork, rec *domain.StockRecord) error
	Snapshot(ctx context.Context, equipmentID string) (*domain.StockRecord, error)
}

// ReservationCoordinator is the only writer of stock rows. Each call is one
// indivisible critical section on the equipment's lock.
type ReservationCoordinator interface {
	ReserveForBorrow(ctx context.Context, equipmentID string, qty domain.Quantity, opts ...MutationOption) (*domain.StockRecord, error)
	ReleaseFromReturn(ctx context.Context, equipmentID string, qty domain.Quantity, damaged bool, opts ...MutationOption) (*domain.StockRecord, error)
	ApplyMaintenanceDelta(ctx context.Context, equipmentID string, delta domain.Quantity, opts ...MutationOption) (*domain.StockRecord, error)
	Reconcile(ctx context.Context, equipmentID string) (*domain.StockRecord, error)
}

type MaintenanceService interface {
	Create(ctx context.Context, req CreateTicketRequest) (*domain.MaintenanceTicket, error)
	Update(ctx context.Context, ticketID int64, upd TicketUpdate) (*domain.MaintenanceTicket, error)
	Delete(ctx context.Context, ticketID int64) error
	Get(ctx context.Context, ticketID int64) (*domain.MaintenanceTicket, error)
	List(ctx context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error)
	Statistics(ctx context.Context) (*domain.MaintenanceStats, error)
}

type TransactionService interface {
	Borrow(ctx context.Context, req BorrowRequest) (*domain.BorrowTransaction, error)
	ApproveBorrow(ctx context.Context, transactionID int64, approverID string) (*domain.BorrowTransaction, error)
	RejectBorrow(ctx context.Context, transactionID int64, approverID, reason string) (*domain.BorrowTransaction, error)
	Return(ctx context.Context, transactionID int64, condition, notes string) (*domain.BorrowTransaction, error)
	GetTransaction(ctx context.Context, transactionID int64) (*domain.BorrowTransaction, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.BorrowTransaction, error)
}

type BorrowRequest struct {
	EquipmentID     string
	Quantity        int64
	DueAt           time.Time
	ActorID         string
	ConditionBefore string
	Notes           string
}

type CreateTicketRequest struct {
	EquipmentID      string
	Quantity         int64
	IssueDescription string
	MaintenanceType  string
	Severity         string
	ReportedBy       string
	AssignedTo       string
	BeforeCondition  string
}

// TicketUpdate carries the optional fields of UpdateMaintenanceTicket; nil
// leaves a field unchanged.
type TicketUpdate struct {
	Status          *domain.MaintenanceStatus
	Quantity        *int64
	AssignedTo      *string
	BeforeCondition *string
	AfterCondition  *string
	CostCents       *int64
	DowntimeHours   *float64
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// MutationOption extends a coordinator call
type MutationOption func(*mutation)

type mutation struct {
	followups []func(ctx context.Context, uow repository.UnitOfWork) error
	condition string
}

// WithFollowup runs fn in the same critical section after the stock row is
// written, so dependent rows commit or roll back together with it.
func WithFollowup(fn func(ctx context.Context, uow repository.UnitOfWork) error) MutationOption {
	return func(m *mutation) {
		m.followups = append(m.followups, fn)
	}
}

// WithItemCondition records the equipment's physical condition with the write
func WithItemCondition(condition string) MutationOption {
	return func(m *mutation) {
		m.condition = condition
	}
}
