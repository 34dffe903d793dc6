package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/repository"
)

const maintenanceColumns = `id, equipment_id, maintenance_type, issue_description, severity, reserved_quantity, status,
	COALESCE(reported_by, ''), COALESCE(assigned_to, ''), COALESCE(before_condition, ''), COALESCE(after_condition, ''),
	cost_cents, downtime_hours, started_at, completed_at, created_at, updated_at`

type maintenanceRepository struct {
	q         querier
	forUpdate bool
}

func NewMaintenanceRepository(db *sql.DB) repository.MaintenanceRepository {
	return &maintenanceRepository{q: db}
}

func (r *maintenanceRepository) Create(ctx context.Context, m *domain.MaintenanceTicket) error {
	now := time.Now()
	query := `INSERT INTO maintenance_logs (equipment_id, maintenance_type, issue_description, severity, reserved_quantity, status,
	              reported_by, assigned_to, before_condition, cost_cents, downtime_hours, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "maintenance_logs.Create", "equipment_id", m.EquipmentID)
	err := r.q.QueryRowContext(ctx, query, m.EquipmentID, m.MaintenanceType, m.IssueDescription, m.Severity, m.ReservedQuantity,
		m.Status, m.ReportedBy, m.AssignedTo, m.BeforeCondition, m.CostCents, m.DowntimeHours, now, now).Scan(&m.ID)
	if err != nil {
		return translateError(err)
	}
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

func (r *maintenanceRepository) GetByID(ctx context.Context, id int64) (*domain.MaintenanceTicket, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_logs WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanTicket(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

func (r *maintenanceRepository) Update(ctx context.Context, m *domain.MaintenanceTicket) error {
	now := time.Now()
	query := `UPDATE maintenance_logs SET reserved_quantity=$1, status=$2, assigned_to=$3, before_condition=$4, after_condition=$5,
	              cost_cents=$6, downtime_hours=$7, started_at=$8, completed_at=$9, updated_at=$10
	          WHERE id=$11`
	res, err := r.q.ExecContext(ctx, query, m.ReservedQuantity, m.Status, m.AssignedTo, m.BeforeCondition, m.AfterCondition,
		m.CostCents, m.DowntimeHours, m.StartedAt, m.CompletedAt, now, m.ID)
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "ticket_id", m.ID)
	if n == 0 {
		return domain.ErrNotFound
	}
	m.UpdatedAt = now
	return nil
}

func (r *maintenanceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM maintenance_logs WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("DELETE", n, nil, "ticket_id", id)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *maintenanceRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_logs WHERE 1=1`
	var args []any
	if filter.EquipmentID != "" {
		args = append(args, filter.EquipmentID)
		query += fmt.Sprintf(" AND equipment_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.MaintenanceTicket
	for rows.Next() {
		m, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *m)
	}
	return tickets, rows.Err()
}

func (r *maintenanceRepository) Statistics(ctx context.Context) (*domain.MaintenanceStats, error) {
	stats := &domain.MaintenanceStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*),
	        COALESCE(AVG(downtime_hours) FILTER (WHERE downtime_hours > 0), 0),
	        COALESCE(SUM(cost_cents), 0)
	        FROM maintenance_logs`).Scan(&stats.Total, &stats.AverageDowntimeHours, &stats.TotalCostCents)
	if err != nil {
		return nil, err
	}

	if err := r.countBy(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "maintenance_type", stats.ByType); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy groups on a fixed column name, never on caller input
func (r *maintenanceRepository) countBy(ctx context.Context, column string, into map[string]int64) error {
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM maintenance_logs GROUP BY %s`, column, column))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func scanTicket(row rowScanner) (*domain.MaintenanceTicket, error) {
	m := &domain.MaintenanceTicket{}
	err := row.Scan(&m.ID, &m.EquipmentID, &m.MaintenanceType, &m.IssueDescription, &m.Severity, &m.ReservedQuantity, &m.Status,
		&m.ReportedBy, &m.AssignedTo, &m.BeforeCondition, &m.AfterCondition, &m.CostCents, &m.DowntimeHours,
		&m.StartedAt, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
