package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"

	"github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run either standalone or inside a locked unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLSTATE raised when lock_timeout expires
const lockNotAvailable = "55P03"

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	repository.EquipmentCatalog
	repository.StockRepository
	repository.TransactionRepository
	repository.MaintenanceRepository
}

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:                    db,
		lockTimeout:           lockTimeout,
		EquipmentCatalog:      NewEquipmentRepository(db),
		StockRepository:       NewStockRepository(db),
		TransactionRepository: NewTransactionRepository(db),
		MaintenanceRepository: NewMaintenanceRepository(db),
	}
}

func (s *Store) Catalog() repository.EquipmentCatalog {
	return s.EquipmentCatalog
}

func (s *Store) Stock() repository.StockRepository {
	return s.StockRepository
}

func (s *Store) Transactions() repository.TransactionRepository {
	return s.TransactionRepository
}

func (s *Store) Maintenance() repository.MaintenanceRepository {
	return s.MaintenanceRepository
}

// WithEquipmentLock runs fn inside one database transaction. The row lock is
// taken by StockRepository.GetForUpdate and released on commit or rollback;
// lock_timeout bounds the wait.
func (s *Store) WithEquipmentLock(ctx context.Context, equipmentID string, fn func(ctx context.Context, uow repository.UnitOfWork) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("Failed to roll back", "equipment_id", equipmentID, "error", rbErr)
			}
		}
	}()

	// SET does not accept bind parameters
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if err = fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return translateError(err)
	}
	return nil
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) Stock() repository.StockRepository {
	return &stockRepository{q: u.tx}
}

func (u *unitOfWork) Transactions() repository.TransactionRepository {
	return &transactionRepository{q: u.tx, forUpdate: true}
}

func (u *unitOfWork) Maintenance() repository.MaintenanceRepository {
	return &maintenanceRepository{q: u.tx, forUpdate: true}
}

// translateError maps driver errors onto the domain taxonomy
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable {
		return fmt.Errorf("%w: %s", domain.ErrBusy, pqErr.Message)
	}
	return err
}
