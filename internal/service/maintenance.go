package service

import (
	"context"
	"fmt"
	"strings"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

const (
	defaultMaintenanceType = "Repair"
	defaultSeverity        = "Medium"
)

type maintenanceService struct {
	coordinator ReservationCoordinator
	tickets     repository.MaintenanceRepository
	busyRetries int
	clock       Clock
}

func NewMaintenanceService(coordinator ReservationCoordinator, tickets repository.MaintenanceRepository, busyRetries int, clock Clock) MaintenanceService {
	return &maintenanceService{
		coordinator: coordinator,
		tickets:     tickets,
		busyRetries: busyRetries,
		clock:       clock,
	}
}

// Create reserves the requested units and records the ticket as Pending in
// the same critical section. Nothing is written when stock is short.
func (s *maintenanceService) Create(ctx context.Context, req CreateTicketRequest) (*domain.MaintenanceTicket, error) {
	if strings.TrimSpace(req.EquipmentID) == "" {
		return nil, domain.NewValidationError("equipment_id", "is required")
	}
	qty, err := domain.PositiveQuantity("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.IssueDescription) == "" {
		return nil, domain.NewValidationError("issue_description", "is required")
	}

	ticket := &domain.MaintenanceTicket{
		EquipmentID:      req.EquipmentID,
		MaintenanceType:  orDefault(req.MaintenanceType, defaultMaintenanceType),
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		Severity:         orDefault(req.Severity, defaultSeverity),
		ReservedQuantity: qty,
		Status:           domain.MaintenanceStatusPending,
		ReportedBy:       req.ReportedBy,
		AssignedTo:       req.AssignedTo,
		BeforeCondition:  req.BeforeCondition,
	}

	delta := domain.MaintenanceDelta(domain.MaintenanceStatusCompleted, ticket.Status, 0, qty)
	_, err = s.coordinator.ApplyMaintenanceDelta(ctx, req.EquipmentID, delta,
		WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
			return uow.Maintenance().Create(ctx, ticket)
		}),
		WithItemCondition(req.BeforeCondition),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Maintenance ticket created", "ticket_id", ticket.ID, "equipment_id", ticket.EquipmentID, "reserved", qty)
	return ticket, nil
}

// Update moves a ticket to a new status and/or quantity. The stock delta is
// derived from the persisted ticket, never from the request.
func (s *maintenanceService) Update(ctx context.Context, ticketID int64, upd TicketUpdate) (*domain.MaintenanceTicket, error) {
	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", ticketID, err)
	}

	next := *current
	if upd.Status != nil {
		next.Status = *upd.Status
	}
	if upd.Quantity != nil {
		if next.ReservedQuantity, err = domain.PositiveQuantity("quantity", *upd.Quantity); err != nil {
			return nil, err
		}
	}
	if upd.AssignedTo != nil {
		next.AssignedTo = *upd.AssignedTo
	}
	if upd.CostCents != nil {
		if *upd.CostCents < 0 {
			return nil, domain.NewValidationError("cost", "cannot be negative")
		}
		next.CostCents = *upd.CostCents
	}
	if upd.DowntimeHours != nil {
		if *upd.DowntimeHours < 0 {
			return nil, domain.NewValidationError("downtime_hours", "cannot be negative")
		}
		next.DowntimeHours = *upd.DowntimeHours
	}

	var condition string
	if upd.BeforeCondition != nil {
		if current.Status != domain.MaintenanceStatusPending {
			return nil, fmt.Errorf("before condition is fixed once work has started (ticket is %s): %w", current.Status, domain.ErrInvalidTransition)
		}
		next.BeforeCondition = *upd.BeforeCondition
		condition = *upd.BeforeCondition
	}
	if upd.AfterCondition != nil {
		if next.Status != domain.MaintenanceStatusCompleted {
			return nil, fmt.Errorf("after condition needs a completed ticket (ticket is %s): %w", next.Status, domain.ErrInvalidTransition)
		}
		next.AfterCondition = *upd.AfterCondition
		condition = *upd.AfterCondition
	}

	s.stampTimes(current, &next, upd)

	// A zero delta still takes the lock so the ticket write is ordered
	// against every other writer of this equipment's tickets.
	delta := domain.MaintenanceDelta(current.Status, next.Status, current.ReservedQuantity, next.ReservedQuantity)
	_, err = s.coordinator.ApplyMaintenanceDelta(ctx, current.EquipmentID, delta,
		WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
			if err := lockedTicket(ctx, uow, current); err != nil {
				return err
			}
			return uow.Maintenance().Update(ctx, &next)
		}),
		WithItemCondition(condition),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Maintenance ticket updated", "ticket_id", ticketID, "status", next.Status, "delta", delta)
	return &next, nil
}

// stampTimes fills started/completed times on entry to a state unless the
// caller supplied them
func (s *maintenanceService) stampTimes(current, next *domain.MaintenanceTicket, upd TicketUpdate) {
	now := s.clock.now()

	if upd.StartedAt != nil {
		next.StartedAt = upd.StartedAt
	} else if next.Status == domain.MaintenanceStatusInProgress && current.Status != next.Status && next.StartedAt == nil {
		next.StartedAt = &now
	}

	if upd.CompletedAt != nil {
		next.CompletedAt = upd.CompletedAt
	} else if next.Status == domain.MaintenanceStatusCompleted && current.Status != next.Status && next.CompletedAt == nil {
		next.CompletedAt = &now
	}
}

// Delete releases any held reservation before the ticket disappears. Lock
// contention is retried; any other failure keeps the ticket. Tickets that
// hold nothing go through the lock too, since a concurrent reopen may be
// about to reserve for them.
func (s *maintenanceService) Delete(ctx context.Context, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("ticket %d: %w", ticketID, err)
	}

	delta := domain.MaintenanceDelta(ticket.Status, domain.MaintenanceStatusCompleted, ticket.ReservedQuantity, 0)
	err = RetryOnBusy(ctx, s.busyRetries, func() error {
		_, err := s.coordinator.ApplyMaintenanceDelta(ctx, ticket.EquipmentID, delta,
			WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
				if err := lockedTicket(ctx, uow, ticket); err != nil {
					return err
				}
				return uow.Maintenance().Delete(ctx, ticketID)
			}),
		)
		return err
	})
	if err != nil {
		logger.Error("Failed to release maintenance reservation, ticket kept", "ticket_id", ticketID, "error", err)
		return fmt.Errorf("delete ticket %d: %w", ticketID, err)
	}

	logger.Info("Maintenance ticket deleted", "ticket_id", ticketID, "released", ticket.ReservedQuantity)
	return nil
}

// lockedTicket re-reads a ticket inside the equipment's critical section.
// The stock delta was derived from seen, so a ticket whose status or
// quantity moved in between is refused and the whole section rolls back.
func lockedTicket(ctx context.Context, uow repository.UnitOfWork, seen *domain.MaintenanceTicket) error {
	locked, err := uow.Maintenance().GetByID(ctx, seen.ID)
	if err != nil {
		return fmt.Errorf("ticket %d: %w", seen.ID, err)
	}
	if locked.Status != seen.Status || locked.ReservedQuantity != seen.ReservedQuantity {
		return fmt.Errorf("ticket %d changed to %s with %d units (was %s with %d): %w",
			seen.ID, locked.Status, locked.ReservedQuantity, seen.Status, seen.ReservedQuantity, domain.ErrInvalidTransition)
	}
	return nil
}

func (s *maintenanceService) Get(ctx context.Context, ticketID int64) (*domain.MaintenanceTicket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

func (s *maintenanceService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	return s.tickets.List(ctx, filter)
}

func (s *maintenanceService) Statistics(ctx context.Context) (*domain.MaintenanceStats, error) {
	return s.tickets.Statistics(ctx)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
