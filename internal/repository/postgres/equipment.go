package postgres

import (
	"context"
	"database/sql"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

type equipmentRepository struct {
	q querier
}

func NewEquipmentRepository(db *sql.DB) repository.EquipmentCatalog {
	return &equipmentRepository{q: db}
}

func (r *equipmentRepository) GetByID(ctx context.Context, equipmentID string) (*domain.Equipment, error) {
	query := `SELECT equipment_id, name, quantity, COALESCE(size_category, ''), COALESCE(item_condition, ''), COALESCE(minimum_stock, 0)
	          FROM equipment WHERE equipment_id = $1`
	logger.DatabaseCall("SELECT", "equipment.GetByID", "equipment_id", equipmentID)

	var (
		eq   domain.Equipment
		size string
	)
	err := r.q.QueryRowContext(ctx, query, equipmentID).Scan(&eq.ID, &eq.Name, &eq.BaseQuantity, &size, &eq.Condition, &eq.MinimumStock)
	if err != nil {
		return nil, translateError(err)
	}
	eq.SizeCategory = domain.ParseSizeCategory(size)
	return &eq, nil
}
