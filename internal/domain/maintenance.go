package domain

import (
	"strings"
	"time"
)

type MaintenanceStatus string

const (
	MaintenanceStatusPending    MaintenanceStatus = "Pending"
	MaintenanceStatusInProgress MaintenanceStatus = "In Progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "Completed"
)

// ParseMaintenanceStatus accepts the labels used by the maintenance tracker
func ParseMaintenanceStatus(s string) (MaintenanceStatus, error) {
	switch strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " ")) {
	case "pending":
		return MaintenanceStatusPending, nil
	case "in progress", "inprogress":
		return MaintenanceStatusInProgress, nil
	case "completed":
		return MaintenanceStatusCompleted, nil
	}
	return "", NewValidationError("status", "must be one of Pending, In Progress, Completed")
}

// Reserves reports whether a ticket in this status holds units out of stock
func (s MaintenanceStatus) Reserves() bool {
	return s == MaintenanceStatusPending || s == MaintenanceStatusInProgress
}

// MaintenanceDelta is the signed change to maintenance_quantity needed to
// move a ticket from (oldStatus, oldQty) to (newStatus, newQty).
func MaintenanceDelta(oldStatus, newStatus MaintenanceStatus, oldQty, newQty Quantity) Quantity {
	oldQty, newQty = clamp(oldQty), clamp(newQty)

	switch oldReserves, newReserves := oldStatus.Reserves(), newStatus.Reserves(); {
	case oldReserves && newReserves:
		return newQty - oldQty
	case oldReserves:
		return -oldQty
	case newReserves:
		return newQty
	default:
		return 0
	}
}

type MaintenanceTicket struct {
	ID               int64             `json:"id"`
	EquipmentID      string            `json:"equipment_id"`
	MaintenanceType  string            `json:"maintenance_type"`
	IssueDescription string            `json:"issue_description"`
	Severity         string            `json:"severity"`
	ReservedQuantity Quantity          `json:"reserved_quantity"`
	Status           MaintenanceStatus `json:"status"`
	ReportedBy       string            `json:"reported_by"`
	AssignedTo       string            `json:"assigned_to,omitempty"`
	BeforeCondition  string            `json:"before_condition,omitempty"`
	AfterCondition   string            `json:"after_condition,omitempty"`
	CostCents        int64             `json:"cost_cents"`
	DowntimeHours    float64           `json:"downtime_hours"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// MaintenanceStats summarises the maintenance log
type MaintenanceStats struct {
	Total                int64            `json:"total"`
	ByStatus             map[string]int64 `json:"by_status"`
	ByType               map[string]int64 `json:"by_type"`
	AverageDowntimeHours float64          `json:"avg_downtime"`
	TotalCostCents       int64            `json:"total_cost_cents"`
}
