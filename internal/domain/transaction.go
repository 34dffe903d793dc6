package domain

import (
	"math"
	"strings"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPendingApproval TransactionStatus = "Pending Approval"
	TransactionStatusActive          TransactionStatus = "Active"
	TransactionStatusReturned        TransactionStatus = "Returned"
	TransactionStatusDamaged         TransactionStatus = "Damaged"
	TransactionStatusRejected        TransactionStatus = "Rejected"
)

// IsTerminal reports a status from which no further reservation change occurs
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusReturned, TransactionStatusDamaged, TransactionStatusRejected:
		return true
	}
	return false
}

type ItemCondition string

const (
	ConditionExcellent ItemCondition = "Excellent"
	ConditionGood      ItemCondition = "Good"
	ConditionFair      ItemCondition = "Fair"
	ConditionDamaged   ItemCondition = "Damaged"
)

// ParseItemCondition validates a return condition label
func ParseItemCondition(s string) (ItemCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "good":
		return ConditionGood, nil
	case "excellent":
		return ConditionExcellent, nil
	case "fair":
		return ConditionFair, nil
	case "damaged":
		return ConditionDamaged, nil
	}
	return "", NewValidationError("condition", "must be one of Excellent, Good, Fair, Damaged")
}

type BorrowTransaction struct {
	ID               int64             `json:"id"`
	EquipmentID      string            `json:"equipment_id"`
	ActorID          string            `json:"actor_id"`
	Quantity         Quantity          `json:"quantity"`
	Status           TransactionStatus `json:"status"`
	ConditionBefore  string            `json:"condition_before"`
	ConditionAfter   string            `json:"condition_after"`
	BorrowedAt       time.Time         `json:"borrowed_at"`
	ExpectedReturnAt time.Time         `json:"expected_return_at"`
	ActualReturnAt   *time.Time        `json:"actual_return_at,omitempty"`
	PenaltyCents     int64             `json:"penalty_cents"`
	ApprovedBy       string            `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time        `json:"approved_at,omitempty"`
	RejectionReason  string            `json:"rejection_reason,omitempty"`
	Notes            string            `json:"notes"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// DaysLate counts started days past the due time; zero when on time
func DaysLate(expected, actual time.Time) int64 {
	late := actual.Sub(expected)
	if late <= 0 {
		return 0
	}
	return int64(math.Ceil(late.Hours() / 24))
}

// CalculatePenalty returns the overdue penalty in cents
func CalculatePenalty(expected, actual time.Time, perDayCents int64) int64 {
	return DaysLate(expected, actual) * perDayCents
}
