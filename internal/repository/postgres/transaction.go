package postgres

import (
	"context"
	"database/sql"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

const transactionColumns = `id, equipment_id, actor_id, quantity, status, COALESCE(condition_before, ''), COALESCE(condition_after, ''),
	borrowed_at, expected_return_at, actual_return_at, penalty_cents, COALESCE(approved_by, ''), approved_at,
	COALESCE(rejection_reason, ''), COALESCE(notes, ''), created_at, updated_at`

type transactionRepository struct {
	q         querier
	forUpdate bool // row reads lock when bound to a unit of work
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{q: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.BorrowTransaction) error {
	logger.EnterMethod("transactionRepository.Create", "equipmentID", t.EquipmentID, "actorID", t.ActorID)
	now := time.Now()
	query := `INSERT INTO transactions (equipment_id, actor_id, quantity, status, condition_before, borrowed_at, expected_return_at,
	              penalty_cents, approved_by, approved_at, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "transactions.Create", "equipment_id", t.EquipmentID, "status", t.Status)
	err := r.q.QueryRowContext(ctx, query, t.EquipmentID, t.ActorID, t.Quantity, t.Status, t.ConditionBefore, t.BorrowedAt,
		t.ExpectedReturnAt, t.PenaltyCents, t.ApprovedBy, t.ApprovedAt, t.Notes, now, now).Scan(&t.ID)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Create", err, "equipmentID", t.EquipmentID)
		return translateError(err)
	}
	t.CreatedAt, t.UpdatedAt = now, now
	logger.ExitMethod("transactionRepository.Create", "transactionID", t.ID)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.BorrowTransaction, error) {
	logger.EnterMethod("transactionRepository.GetByID", "transactionID", id, "forUpdate", r.forUpdate)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTransaction(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.GetByID", err, "transactionID", id)
		return nil, translateError(err)
	}
	logger.ExitMethod("transactionRepository.GetByID", "transactionID", id, "status", t.Status)
	return t, nil
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.BorrowTransaction) error {
	now := time.Now()
	query := `UPDATE transactions SET quantity=$1, status=$2, condition_after=$3, actual_return_at=$4, penalty_cents=$5,
	              approved_by=$6, approved_at=$7, rejection_reason=$8, notes=$9, updated_at=$10
	          WHERE id=$11`
	res, err := r.q.ExecContext(ctx, query, t.Quantity, t.Status, t.ConditionAfter, t.ActualReturnAt, t.PenaltyCents,
		t.ApprovedBy, t.ApprovedAt, t.RejectionReason, t.Notes, now, t.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "transaction_id", t.ID)
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "transaction_id", t.ID)
	if n == 0 {
		return domain.ErrNotFound
	}
	t.UpdatedAt = now
	return nil
}

func (r *transactionRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.BorrowTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE status = $1 AND expected_return_at < $2 ORDER BY expected_return_at`
	rows, err := r.q.QueryContext(ctx, query, domain.TransactionStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.BorrowTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.BorrowTransaction, error) {
	t := &domain.BorrowTransaction{}
	err := row.Scan(&t.ID, &t.EquipmentID, &t.ActorID, &t.Quantity, &t.Status, &t.ConditionBefore, &t.ConditionAfter,
		&t.BorrowedAt, &t.ExpectedReturnAt, &t.ActualReturnAt, &t.PenaltyCents, &t.ApprovedBy, &t.ApprovedAt,
		&t.RejectionReason, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
