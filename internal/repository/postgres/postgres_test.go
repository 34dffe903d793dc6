package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
)

var stockRowColumns = []string{"equipment_id", "total_quantity", "available_quantity", "borrowed_quantity", "damaged_quantity",
	"maintenance_quantity", "minimum_stock_level", "availability_status", "item_condition", "last_updated", "created_at"}

var transactionRowColumns = []string{"id", "equipment_id", "actor_id", "quantity", "status", "condition_before", "condition_after",
	"borrowed_at", "expected_return_at", "actual_return_at", "penalty_cents", "approved_by", "approved_at",
	"rejection_reason", "notes", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestStore_WithEquipmentLock(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db, 3*time.Second)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '3000ms'")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM inventory WHERE equipment_id = \\$1 FOR UPDATE").
			WithArgs("EQ-1").
			WillReturnRows(sqlmock.NewRows(stockRowColumns).
				AddRow("EQ-1", 5, 5, 0, 0, 0, 1, "Available", "Good", now, now))
		mock.ExpectExec("UPDATE inventory SET").
			WithArgs(domain.Quantity(5), domain.Quantity(4), domain.Quantity(1), domain.Quantity(0), domain.Quantity(0),
				domain.Quantity(1), domain.AvailabilityAvailable, "Good", sqlmock.AnyArg(), "EQ-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithEquipmentLock(ctx, "EQ-1", func(ctx context.Context, uow repository.UnitOfWork) error {
			rec, err := uow.Stock().GetForUpdate(ctx, "EQ-1")
			if err != nil {
				return err
			}
			rec.BorrowedQuantity++
			rec.Recompute()
			rec.LastUpdated = time.Now()
			return uow.Stock().Save(ctx, rec)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LockTimeoutIsBusy", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db, 50*time.Millisecond)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '50ms'")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM inventory WHERE equipment_id = \\$1 FOR UPDATE").
			WithArgs("EQ-1").
			WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		err := store.WithEquipmentLock(ctx, "EQ-1", func(ctx context.Context, uow repository.UnitOfWork) error {
			_, err := uow.Stock().GetForUpdate(ctx, "EQ-1")
			return err
		})
		assert.ErrorIs(t, err, domain.ErrBusy)
		assert.True(t, domain.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db, time.Second)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		refused := &domain.InsufficientStockError{EquipmentID: "EQ-1", Requested: 3, Available: 1}
		err := store.WithEquipmentLock(ctx, "EQ-1", func(ctx context.Context, uow repository.UnitOfWork) error {
			return refused
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db, time.Second)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := store.WithEquipmentLock(ctx, "EQ-1", func(ctx context.Context, uow repository.UnitOfWork) error {
			t.Fatal("section must not run without a transaction")
			return nil
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStockRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetNotFound", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStockRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM inventory WHERE equipment_id = \\$1").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("InsertIgnoresConflict", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStockRepository(db)
		rec := &domain.StockRecord{EquipmentID: "EQ-1", TotalQuantity: 5, AvailableQuantity: 5, MinimumStockLevel: 1,
			AvailabilityStatus: domain.AvailabilityAvailable}

		mock.ExpectExec("INSERT INTO inventory (.+) ON CONFLICT \\(equipment_id\\) DO NOTHING").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Insert(ctx, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SaveMissingRow", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStockRepository(db)

		mock.ExpectExec("UPDATE inventory SET").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(ctx, &domain.StockRecord{EquipmentID: "EQ-9"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListEquipmentIDs", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStockRepository(db)

		mock.ExpectQuery("SELECT equipment_id FROM inventory ORDER BY equipment_id").
			WillReturnRows(sqlmock.NewRows([]string{"equipment_id"}).AddRow("EQ-1").AddRow("EQ-2"))

		ids, err := repo.ListEquipmentIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"EQ-1", "EQ-2"}, ids)
	})
}

func TestEquipmentRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEquipmentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM equipment WHERE equipment_id = \\$1").
			WithArgs("EQ-2").
			WillReturnRows(sqlmock.NewRows([]string{"equipment_id", "name", "quantity", "size_category", "item_condition", "minimum_stock"}).
				AddRow("EQ-2", "Volleyball Net", 2, "large", "Good", 0))

		eq, err := repo.GetByID(ctx, "EQ-2")
		require.NoError(t, err)
		assert.Equal(t, domain.Quantity(2), eq.BaseQuantity)
		assert.Equal(t, domain.SizeLarge, eq.SizeCategory)
		assert.True(t, eq.IsBulky())
	})
}

func TestTransactionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Create", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewTransactionRepository(db)
		tx := &domain.BorrowTransaction{
			EquipmentID:      "EQ-1",
			ActorID:          "student-7",
			Quantity:         2,
			Status:           domain.TransactionStatusActive,
			ConditionBefore:  "Good",
			BorrowedAt:       now,
			ExpectedReturnAt: now.Add(24 * time.Hour),
		}

		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs("EQ-1", "student-7", domain.Quantity(2), domain.TransactionStatusActive, "Good", now, tx.ExpectedReturnAt,
				int64(0), "", nil, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		err := repo.Create(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
	})

	t.Run("GetByIDLocksInsideUnitOfWork", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db, time.Second)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(transactionRowColumns).
				AddRow(7, "EQ-2", "student-1", 1, "Pending Approval", "Good", "", now, now.Add(time.Hour), nil, 0, "", nil, "", "", now, now))
		mock.ExpectCommit()

		err := store.WithEquipmentLock(ctx, "EQ-2", func(ctx context.Context, uow repository.UnitOfWork) error {
			tx, err := uow.Transactions().GetByID(ctx, 7)
			if err != nil {
				return err
			}
			assert.Equal(t, domain.TransactionStatusPendingApproval, tx.Status)
			assert.Nil(t, tx.ActualReturnAt)
			return nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewTransactionRepository(db)

		mock.ExpectExec("UPDATE transactions SET").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, &domain.BorrowTransaction{ID: 99})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListOverdue", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewTransactionRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM transactions\\s+WHERE status = \\$1 AND expected_return_at < \\$2").
			WithArgs(domain.TransactionStatusActive, now).
			WillReturnRows(sqlmock.NewRows(transactionRowColumns).
				AddRow(3, "EQ-1", "student-2", 1, "Active", "Good", "", now.Add(-72*time.Hour), now.Add(-48*time.Hour), nil, 0, "", nil, "", "", now, now))

		txs, err := repo.ListOverdue(ctx, now)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, int64(3), txs[0].ID)
		assert.Equal(t, "student-2", txs[0].ActorID)
	})
}

func TestMaintenanceRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewMaintenanceRepository(db)

		mock.ExpectQuery("INSERT INTO maintenance_logs").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		ticket := &domain.MaintenanceTicket{EquipmentID: "EQ-1", MaintenanceType: "Repair", IssueDescription: "Flat",
			Severity: "Medium", ReservedQuantity: 1, Status: domain.MaintenanceStatusPending}
		require.NoError(t, repo.Create(ctx, ticket))
		assert.Equal(t, int64(5), ticket.ID)
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewMaintenanceRepository(db)

		mock.ExpectExec("DELETE FROM maintenance_logs WHERE id = \\$1").
			WithArgs(int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 8), domain.ErrNotFound)
	})

	t.Run("ListWithFilter", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewMaintenanceRepository(db)
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM maintenance_logs WHERE 1=1 AND equipment_id = \\$1 AND status = \\$2").
			WithArgs("EQ-1", domain.MaintenanceStatusInProgress).
			WillReturnRows(sqlmock.NewRows([]string{"id", "equipment_id", "maintenance_type", "issue_description", "severity",
				"reserved_quantity", "status", "reported_by", "assigned_to", "before_condition", "after_condition",
				"cost_cents", "downtime_hours", "started_at", "completed_at", "created_at", "updated_at"}).
				AddRow(2, "EQ-1", "Repair", "Torn", "High", 1, "In Progress", "staff-1", "tech-2", "Fair", "", 0, 0, now, nil, now, now))

		tickets, err := repo.List(ctx, repository.TicketFilter{EquipmentID: "EQ-1", Status: domain.MaintenanceStatusInProgress})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "tech-2", tickets[0].AssignedTo)
		assert.NotNil(t, tickets[0].StartedAt)
		assert.Nil(t, tickets[0].CompletedAt)
	})

	t.Run("Statistics", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewMaintenanceRepository(db)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\),").
			WillReturnRows(sqlmock.NewRows([]string{"count", "avg", "sum"}).AddRow(3, 2.5, 1200))
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM maintenance_logs GROUP BY status").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("Pending", 1).AddRow("Completed", 2))
		mock.ExpectQuery("SELECT maintenance_type, COUNT\\(\\*\\) FROM maintenance_logs GROUP BY maintenance_type").
			WillReturnRows(sqlmock.NewRows([]string{"maintenance_type", "count"}).AddRow("Repair", 3))

		stats, err := repo.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Total)
		assert.Equal(t, int64(1200), stats.TotalCostCents)
		assert.InDelta(t, 2.5, stats.AverageDowntimeHours, 0.0001)
		assert.Equal(t, int64(2), stats.ByStatus["Completed"])
		assert.Equal(t, int64(3), stats.ByType["Repair"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	for range schema {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	assert.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
