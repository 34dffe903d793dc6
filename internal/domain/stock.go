package domain

import "time"

type AvailabilityStatus string

const (
	AvailabilityAvailable          AvailabilityStatus = "Available"
	AvailabilityLowStock           AvailabilityStatus = "Low Stock"
	AvailabilityPartiallyAvailable AvailabilityStatus = "Partially Available"
	AvailabilityNotAvailable       AvailabilityStatus = "Not Available"
)

// StockRecord is the quantity pool of one equipment item. AvailableQuantity
// is a cached value; every write recomputes it from the other counters.
type StockRecord struct {
	EquipmentID         string             `json:"equipment_id"`
	TotalQuantity       Quantity           `json:"total_quantity"`
	AvailableQuantity   Quantity           `json:"available_quantity"`
	BorrowedQuantity    Quantity           `json:"borrowed_quantity"`
	DamagedQuantity     Quantity           `json:"damaged_quantity"`
	MaintenanceQuantity Quantity           `json:"maintenance_quantity"`
	MinimumStockLevel   Quantity           `json:"minimum_stock_level"`
	AvailabilityStatus  AvailabilityStatus `json:"availability_status"`
	ItemCondition       string             `json:"item_condition"`
	LastUpdated         time.Time          `json:"last_updated"`
	CreatedAt           time.Time          `json:"created_at"`
}

// ClampedCounter names a counter that was negative before normalisation
type ClampedCounter struct {
	Field string
	Value Quantity
}

// ComputeAvailability derives the free unit count and status. Total
// function: negative inputs are treated as zero, minStock as at least one.
// Low stock takes precedence over partial availability.
func ComputeAvailability(total, borrowed, damaged, maintenance, minStock Quantity) (Quantity, AvailabilityStatus) {
	total, borrowed, damaged, maintenance = clamp(total), clamp(borrowed), clamp(damaged), clamp(maintenance)
	if minStock < 1 {
		minStock = 1
	}

	available := clamp(total - borrowed - damaged - maintenance)

	switch {
	case available == 0:
		return 0, AvailabilityNotAvailable
	case available <= minStock:
		return available, AvailabilityLowStock
	case maintenance > 0:
		return available, AvailabilityPartiallyAvailable
	default:
		return available, AvailabilityAvailable
	}
}

// NewStockRecord bootstraps a row from the catalog's base quantity
func NewStockRecord(eq *Equipment, defaultMinStock Quantity) *StockRecord {
	minStock := eq.MinimumStock
	if minStock < 1 {
		minStock = defaultMinStock
	}
	rec := &StockRecord{
		EquipmentID:       eq.ID,
		TotalQuantity:     clamp(eq.BaseQuantity),
		MinimumStockLevel: minStock,
		ItemCondition:     eq.Condition,
	}
	rec.Recompute()
	return rec
}

// Normalize clamps negative counters to zero and reports which ones were off
func (r *StockRecord) Normalize() []ClampedCounter {
	var clamped []ClampedCounter
	fix := func(field string, q *Quantity) {
		if *q < 0 {
			clamped = append(clamped, ClampedCounter{Field: field, Value: *q})
			*q = 0
		}
	}
	fix("total_quantity", &r.TotalQuantity)
	fix("borrowed_quantity", &r.BorrowedQuantity)
	fix("damaged_quantity", &r.DamagedQuantity)
	fix("maintenance_quantity", &r.MaintenanceQuantity)
	if r.MinimumStockLevel < 1 {
		r.MinimumStockLevel = 1
	}
	return clamped
}

// Recompute refreshes AvailableQuantity and AvailabilityStatus
func (r *StockRecord) Recompute() {
	r.AvailableQuantity, r.AvailabilityStatus = ComputeAvailability(
		r.TotalQuantity, r.BorrowedQuantity, r.DamagedQuantity, r.MaintenanceQuantity, r.MinimumStockLevel)
}

// IsShort reports a status that warrants a low stock alert
func (s AvailabilityStatus) IsShort() bool {
	return s == AvailabilityLowStock || s == AvailabilityNotAvailable
}

// Clone returns a copy safe to mutate
func (r *StockRecord) Clone() *StockRecord {
	c := *r
	return &c
}
