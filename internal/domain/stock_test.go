package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAvailability(t *testing.T) {
	tests := []struct {
		name                                       string
		total, borrowed, damaged, maint, minStock Quantity
		wantAvailable                              Quantity
		wantStatus                                 AvailabilityStatus
	}{
		{"all free", 10, 0, 0, 0, 1, 10, AvailabilityAvailable},
		{"nothing left", 5, 3, 1, 1, 1, 0, AvailabilityNotAvailable},
		{"at minimum is low", 10, 8, 0, 0, 2, 2, AvailabilityLowStock},
		{"one above minimum", 10, 7, 0, 0, 2, 3, AvailabilityAvailable},
		{"maintenance makes partial", 10, 2, 0, 3, 1, 5, AvailabilityPartiallyAvailable},
		{"low beats partial", 10, 5, 0, 4, 1, 1, AvailabilityLowStock},
		{"overcommitted clamps to zero", 3, 5, 0, 0, 1, 0, AvailabilityNotAvailable},
		{"negative counters clamp", 4, -2, 0, 0, 1, 4, AvailabilityAvailable},
		{"minimum below one treated as one", 10, 9, 0, 0, 0, 1, AvailabilityLowStock},
		{"zero total", 0, 0, 0, 0, 1, 0, AvailabilityNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, status := ComputeAvailability(tt.total, tt.borrowed, tt.damaged, tt.maint, tt.minStock)
			assert.Equal(t, tt.wantAvailable, available)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestNewStockRecord(t *testing.T) {
	t.Run("Uses catalog minimum", func(t *testing.T) {
		rec := NewStockRecord(&Equipment{ID: "EQ-1", BaseQuantity: 5, MinimumStock: 2, Condition: "Good"}, 1)
		assert.Equal(t, Quantity(5), rec.TotalQuantity)
		assert.Equal(t, Quantity(5), rec.AvailableQuantity)
		assert.Equal(t, Quantity(2), rec.MinimumStockLevel)
		assert.Equal(t, AvailabilityAvailable, rec.AvailabilityStatus)
		assert.Equal(t, "Good", rec.ItemCondition)
	})

	t.Run("Falls back to default minimum", func(t *testing.T) {
		rec := NewStockRecord(&Equipment{ID: "EQ-2", BaseQuantity: 1}, 1)
		assert.Equal(t, Quantity(1), rec.MinimumStockLevel)
		assert.Equal(t, AvailabilityLowStock, rec.AvailabilityStatus)
	})
}

func TestStockRecord_Normalize(t *testing.T) {
	rec := &StockRecord{EquipmentID: "EQ-1", TotalQuantity: 5, BorrowedQuantity: -1, MaintenanceQuantity: -3, MinimumStockLevel: 0}

	clamped := rec.Normalize()

	assert.Len(t, clamped, 2)
	assert.Equal(t, "borrowed_quantity", clamped[0].Field)
	assert.Equal(t, Quantity(-1), clamped[0].Value)
	assert.Equal(t, "maintenance_quantity", clamped[1].Field)
	assert.Equal(t, Quantity(0), rec.BorrowedQuantity)
	assert.Equal(t, Quantity(0), rec.MaintenanceQuantity)
	assert.Equal(t, Quantity(1), rec.MinimumStockLevel)

	assert.Empty(t, rec.Normalize())
}

func TestStockRecord_Clone(t *testing.T) {
	rec := &StockRecord{EquipmentID: "EQ-1", TotalQuantity: 5}
	c := rec.Clone()
	c.TotalQuantity = 9
	assert.Equal(t, Quantity(5), rec.TotalQuantity)
}
