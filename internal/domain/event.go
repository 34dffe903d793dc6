package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLowStockReached        EventType = "LOW_STOCK_REACHED"
	EventReturnOverdue          EventType = "RETURN_OVERDUE"
	EventBorrowAwaitingApproval EventType = "BORROW_AWAITING_APPROVAL"
)

// Event is a fire-and-forget notification emitted by the engine
type Event struct {
	ID            string             `json:"id"`
	Type          EventType          `json:"type"`
	EquipmentID   string             `json:"equipment_id"`
	TransactionID int64              `json:"transaction_id,omitempty"`
	ActorID       string             `json:"actor_id,omitempty"`
	Available     Quantity           `json:"available"`
	Status        AvailabilityStatus `json:"availability_status,omitempty"`
	DaysOverdue   int64              `json:"days_overdue,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and time
func NewEvent(t EventType, equipmentID string, at time.Time) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        t,
		EquipmentID: equipmentID,
		OccurredAt:  at.UTC(),
	}
}

// Title returns a short human readable subject line
func (e *Event) Title() string {
	switch e.Type {
	case EventLowStockReached:
		return "Low stock: " + e.EquipmentID
	case EventReturnOverdue:
		return "Overdue return: " + e.EquipmentID
	case EventBorrowAwaitingApproval:
		return "Borrow awaiting approval: " + e.EquipmentID
	}
	return string(e.Type)
}
