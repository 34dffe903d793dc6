package postgres

import (
	"context"
	"database/sql"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

const stockColumns = `equipment_id, total_quantity, available_quantity, borrowed_quantity, damaged_quantity,
	maintenance_quantity, minimum_stock_level, availability_status, COALESCE(item_condition, ''), last_updated, created_at`

type stockRepository struct {
	q querier
}

func NewStockRepository(db *sql.DB) repository.StockRepository {
	return &stockRepository{q: db}
}

func (r *stockRepository) GetForUpdate(ctx context.Context, equipmentID string) (*domain.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM inventory WHERE equipment_id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "inventory.GetForUpdate", "equipment_id", equipmentID)
	return r.scanOne(ctx, query, equipmentID)
}

func (r *stockRepository) Get(ctx context.Context, equipmentID string) (*domain.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM inventory WHERE equipment_id = $1`
	return r.scanOne(ctx, query, equipmentID)
}

func (r *stockRepository) scanOne(ctx context.Context, query, equipmentID string) (*domain.StockRecord, error) {
	rec := &domain.StockRecord{}
	err := r.q.QueryRowContext(ctx, query, equipmentID).Scan(
		&rec.EquipmentID, &rec.TotalQuantity, &rec.AvailableQuantity, &rec.BorrowedQuantity, &rec.DamagedQuantity,
		&rec.MaintenanceQuantity, &rec.MinimumStockLevel, &rec.AvailabilityStatus, &rec.ItemCondition, &rec.LastUpdated, &rec.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return rec, nil
}

func (r *stockRepository) Insert(ctx context.Context, rec *domain.StockRecord) error {
	query := `INSERT INTO inventory (equipment_id, total_quantity, available_quantity, borrowed_quantity, damaged_quantity,
	              maintenance_quantity, minimum_stock_level, availability_status, item_condition, last_updated, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          ON CONFLICT (equipment_id) DO NOTHING`
	res, err := r.q.ExecContext(ctx, query, rec.EquipmentID, rec.TotalQuantity, rec.AvailableQuantity, rec.BorrowedQuantity,
		rec.DamagedQuantity, rec.MaintenanceQuantity, rec.MinimumStockLevel, rec.AvailabilityStatus, rec.ItemCondition,
		rec.LastUpdated, rec.CreatedAt)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "equipment_id", rec.EquipmentID)
		return translateError(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, nil, "equipment_id", rec.EquipmentID)
	return nil
}

func (r *stockRepository) Save(ctx context.Context, rec *domain.StockRecord) error {
	query := `UPDATE inventory SET total_quantity=$1, available_quantity=$2, borrowed_quantity=$3, damaged_quantity=$4,
	              maintenance_quantity=$5, minimum_stock_level=$6, availability_status=$7, item_condition=$8, last_updated=$9
	          WHERE equipment_id=$10`
	res, err := r.q.ExecContext(ctx, query, rec.TotalQuantity, rec.AvailableQuantity, rec.BorrowedQuantity, rec.DamagedQuantity,
		rec.MaintenanceQuantity, rec.MinimumStockLevel, rec.AvailabilityStatus, rec.ItemCondition, rec.LastUpdated, rec.EquipmentID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "equipment_id", rec.EquipmentID)
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "equipment_id", rec.EquipmentID)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *stockRepository) ListEquipmentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT equipment_id FROM inventory ORDER BY equipment_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
