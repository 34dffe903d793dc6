package grpc

import (
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"kiosk-inventory-backend/internal/domain"
)

// fields reads typed values from a Struct request
type fields map[string]*structpb.Value

func requestFields(s *structpb.Struct) fields {
	return fields(s.GetFields())
}

func (f fields) has(key string) bool {
	v, ok := f[key]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

func (f fields) str(key string) string {
	return strings.TrimSpace(f[key].GetStringValue())
}

// whole reads a whole number; missing keys yield def
func (f fields) whole(key string, def int64) (int64, error) {
	if !f.has(key) {
		return def, nil
	}
	v := f[key]
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		return 0, domain.NewValidationError(key, "must be a number")
	}
	n := v.GetNumberValue()
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, domain.NewValidationError(key, "must be a whole number")
	}
	if math.Abs(n) > math.MaxInt32 {
		return 0, domain.NewValidationError(key, "is too large")
	}
	return int64(n), nil
}

func (f fields) id(key string) (int64, error) {
	if !f.has(key) {
		return 0, domain.NewValidationError(key, "is required")
	}
	n, err := f.whole(key, 0)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, domain.NewValidationError(key, "must be positive")
	}
	return n, nil
}

func (f fields) time(key string) (time.Time, error) {
	raw := f.str(key)
	if raw == "" {
		return time.Time{}, domain.NewValidationError(key, "is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(key, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

func (f fields) optionalString(key string) *string {
	if !f.has(key) {
		return nil
	}
	s := f.str(key)
	return &s
}

func (f fields) optionalTime(key string) (*time.Time, error) {
	if !f.has(key) {
		return nil, nil
	}
	t, err := f.time(key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func MapStockRecordToProto(r *domain.StockRecord) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"equipment_id":         r.EquipmentID,
		"total_quantity":       int64(r.TotalQuantity),
		"available_quantity":   int64(r.AvailableQuantity),
		"borrowed_quantity":    int64(r.BorrowedQuantity),
		"damaged_quantity":     int64(r.DamagedQuantity),
		"maintenance_quantity": int64(r.MaintenanceQuantity),
		"minimum_stock_level":  int64(r.MinimumStockLevel),
		"availability_status":  string(r.AvailabilityStatus),
		"item_condition":       r.ItemCondition,
		"last_updated":         formatTime(r.LastUpdated),
	}
}

func MapTransactionToProto(t *domain.BorrowTransaction) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"id":                 t.ID,
		"equipment_id":       t.EquipmentID,
		"actor_id":           t.ActorID,
		"quantity":           int64(t.Quantity),
		"status":             string(t.Status),
		"condition_before":   t.ConditionBefore,
		"condition_after":    t.ConditionAfter,
		"borrowed_at":        formatTime(t.BorrowedAt),
		"expected_return_at": formatTime(t.ExpectedReturnAt),
		"actual_return_at":   formatTimePtr(t.ActualReturnAt),
		"penalty_cents":      t.PenaltyCents,
		"approved_by":        t.ApprovedBy,
		"approved_at":        formatTimePtr(t.ApprovedAt),
		"rejection_reason":   t.RejectionReason,
		"notes":              t.Notes,
	}
}

func MapTicketToProto(m *domain.MaintenanceTicket) map[string]any {
	if m == nil {
		return nil
	}
	return map[string]any{
		"id":                m.ID,
		"equipment_id":      m.EquipmentID,
		"maintenance_type":  m.MaintenanceType,
		"issue_description": m.IssueDescription,
		"severity":          m.Severity,
		"quantity":          int64(m.ReservedQuantity),
		"status":            string(m.Status),
		"reported_by":       m.ReportedBy,
		"assigned_to":       m.AssignedTo,
		"before_condition":  m.BeforeCondition,
		"after_condition":   m.AfterCondition,
		"cost_cents":        m.CostCents,
		"downtime_hours":    m.DowntimeHours,
		"started_at":        formatTimePtr(m.StartedAt),
		"completed_at":      formatTimePtr(m.CompletedAt),
		"created_at":        formatTime(m.CreatedAt),
		"updated_at":        formatTime(m.UpdatedAt),
	}
}

func MapStatsToProto(s *domain.MaintenanceStats) map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{
		"total":            s.Total,
		"by_status":        countsToProto(s.ByStatus),
		"by_type":          countsToProto(s.ByType),
		"avg_downtime":     s.AverageDowntimeHours,
		"total_cost_cents": s.TotalCostCents,
	}
}

func countsToProto(m map[string]int64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mapTicketsToProto(tickets []domain.MaintenanceTicket) []any {
	out := make([]any, 0, len(tickets))
	for i := range tickets {
		out = append(out, MapTicketToProto(&tickets[i]))
	}
	return out
}
