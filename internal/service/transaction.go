package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/notify"
	"kiosk-inventory-backend/internal/repository"
)

type transactionService struct {
	locker             repository.EquipmentLocker
	coordinator        ReservationCoordinator
	catalog            repository.EquipmentCatalog
	txRepo             repository.TransactionRepository
	notifier           notify.Notifier
	penaltyPerDayCents int64
	clock              Clock
}

func NewTransactionService(
	locker repository.EquipmentLocker,
	coordinator ReservationCoordinator,
	catalog repository.EquipmentCatalog,
	txRepo repository.TransactionRepository,
	notifier notify.Notifier,
	penaltyPerDayCents int64,
	clock Clock,
) TransactionService {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &transactionService{
		locker:             locker,
		coordinator:        coordinator,
		catalog:            catalog,
		txRepo:             txRepo,
		notifier:           notifier,
		penaltyPerDayCents: penaltyPerDayCents,
		clock:              clock,
	}
}

// Borrow reserves stock and opens an Active transaction. Bulky equipment is
// parked as Pending Approval with no reservation until staff approve it.
func (s *transactionService) Borrow(ctx context.Context, req BorrowRequest) (*domain.BorrowTransaction, error) {
	if strings.TrimSpace(req.EquipmentID) == "" {
		return nil, domain.NewValidationError("equipment_id", "is required")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, domain.NewValidationError("actor_id", "is required")
	}
	qty, err := domain.PositiveQuantity("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	if !req.DueAt.After(now) {
		return nil, domain.NewValidationError("due_at", "must be in the future")
	}

	eq, err := s.catalog.GetByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("equipment %s: %w", req.EquipmentID, err)
	}

	tx := &domain.BorrowTransaction{
		EquipmentID:      eq.ID,
		ActorID:          req.ActorID,
		Quantity:         qty,
		ConditionBefore:  orDefault(req.ConditionBefore, eq.Condition),
		BorrowedAt:       now,
		ExpectedReturnAt: req.DueAt,
		Notes:            req.Notes,
	}

	if eq.IsBulky() {
		tx.Status = domain.TransactionStatusPendingApproval
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return nil, err
		}
		logger.Info("Bulky borrow awaiting approval", "transaction_id", tx.ID, "equipment_id", eq.ID, "actor_id", req.ActorID)

		ev := domain.NewEvent(domain.EventBorrowAwaitingApproval, eq.ID, now)
		ev.TransactionID = tx.ID
		ev.ActorID = tx.ActorID
		s.notifier.Notify(ctx, ev)
		return tx, nil
	}

	tx.Status = domain.TransactionStatusActive
	_, err = s.coordinator.ReserveForBorrow(ctx, eq.ID, qty, WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.Transactions().Create(ctx, tx)
	}))
	if err != nil {
		return nil, err
	}

	logger.Info("Borrow recorded", "transaction_id", tx.ID, "equipment_id", eq.ID, "quantity", qty, "actor_id", req.ActorID)
	return tx, nil
}

// ApproveBorrow performs the deferred reservation of a bulky borrow
func (s *transactionService) ApproveBorrow(ctx context.Context, transactionID int64, approverID string) (*domain.BorrowTransaction, error) {
	tx, err := s.pendingApproval(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var approved *domain.BorrowTransaction
	_, err = s.coordinator.ReserveForBorrow(ctx, tx.EquipmentID, tx.Quantity, WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
		cur, err := lockedPendingApproval(ctx, uow, transactionID)
		if err != nil {
			return err
		}
		now := s.clock.now()
		cur.Status = domain.TransactionStatusActive
		cur.ApprovedBy = approverID
		cur.ApprovedAt = &now
		if err := uow.Transactions().Update(ctx, cur); err != nil {
			return err
		}
		approved = cur
		return nil
	}))
	if err != nil {
		return nil, err
	}

	logger.Info("Borrow approved", "transaction_id", transactionID, "approver_id", approverID)
	return approved, nil
}

// RejectBorrow closes a pending bulky borrow; stock is untouched
func (s *transactionService) RejectBorrow(ctx context.Context, transactionID int64, approverID, reason string) (*domain.BorrowTransaction, error) {
	tx, err := s.pendingApproval(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var rejected *domain.BorrowTransaction
	err = s.locker.WithEquipmentLock(ctx, tx.EquipmentID, func(ctx context.Context, uow repository.UnitOfWork) error {
		cur, err := lockedPendingApproval(ctx, uow, transactionID)
		if err != nil {
			return err
		}
		cur.Status = domain.TransactionStatusRejected
		cur.ApprovedBy = approverID
		cur.RejectionReason = reason
		if err := uow.Transactions().Update(ctx, cur); err != nil {
			return err
		}
		rejected = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Borrow rejected", "transaction_id", transactionID, "approver_id", approverID)
	return rejected, nil
}

// Return closes an Active transaction with its overdue penalty. If the
// stock release fails the transaction stays Active.
func (s *transactionService) Return(ctx context.Context, transactionID int64, condition, notes string) (*domain.BorrowTransaction, error) {
	cond, err := domain.ParseItemCondition(condition)
	if err != nil {
		return nil, err
	}

	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, err)
	}
	if tx.Status != domain.TransactionStatusActive {
		return nil, fmt.Errorf("transaction %d is %s: %w", transactionID, tx.Status, domain.ErrInvalidTransition)
	}

	now := s.clock.now()
	damaged := cond == domain.ConditionDamaged
	penalty := domain.CalculatePenalty(tx.ExpectedReturnAt, now, s.penaltyPerDayCents)

	var returned *domain.BorrowTransaction
	_, err = s.coordinator.ReleaseFromReturn(ctx, tx.EquipmentID, tx.Quantity, damaged, WithFollowup(func(ctx context.Context, uow repository.UnitOfWork) error {
		cur, err := uow.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if cur.Status != domain.TransactionStatusActive {
			return fmt.Errorf("transaction %d is %s: %w", transactionID, cur.Status, domain.ErrInvalidTransition)
		}
		cur.Status = domain.TransactionStatusReturned
		if damaged {
			cur.Status = domain.TransactionStatusDamaged
		}
		cur.ConditionAfter = string(cond)
		cur.ActualReturnAt = &now
		cur.PenaltyCents = penalty
		if notes != "" {
			cur.Notes = notes
		}
		if err := uow.Transactions().Update(ctx, cur); err != nil {
			return err
		}
		returned = cur
		return nil
	}))
	if err != nil {
		return nil, err
	}

	logger.Info("Return recorded", "transaction_id", transactionID, "status", returned.Status, "penalty_cents", penalty)
	return returned, nil
}

func (s *transactionService) GetTransaction(ctx context.Context, transactionID int64) (*domain.BorrowTransaction, error) {
	return s.txRepo.GetByID(ctx, transactionID)
}

func (s *transactionService) ListOverdue(ctx context.Context, now time.Time) ([]domain.BorrowTransaction, error) {
	return s.txRepo.ListOverdue(ctx, now)
}

func (s *transactionService) pendingApproval(ctx context.Context, transactionID int64) (*domain.BorrowTransaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, err)
	}
	if tx.Status != domain.TransactionStatusPendingApproval {
		return nil, fmt.Errorf("transaction %d is %s: %w", transactionID, tx.Status, domain.ErrInvalidTransition)
	}
	return tx, nil
}

func lockedPendingApproval(ctx context.Context, uow repository.UnitOfWork, transactionID int64) (*domain.BorrowTransaction, error) {
	cur, err := uow.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.TransactionStatusPendingApproval {
		return nil, fmt.Errorf("transaction %d is %s: %w", transactionID, cur.Status, domain.ErrInvalidTransition)
	}
	return cur, nil
}
