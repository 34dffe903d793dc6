package domain

import "strings"

type SizeCategory string

const (
	SizeSmall  SizeCategory = "Small"
	SizeMedium SizeCategory = "Medium"
	SizeLarge  SizeCategory = "Large"
)

// Equipment is a read-only catalog entry
type Equipment struct {
	ID           string       `json:"equipment_id"`
	Name         string       `json:"name"`
	BaseQuantity Quantity     `json:"base_quantity"`
	SizeCategory SizeCategory `json:"size_category"`
	Condition    string       `json:"condition"`
	MinimumStock Quantity     `json:"minimum_stock"`
}

// IsBulky reports whether borrows of this item wait for staff approval
func (e *Equipment) IsBulky() bool {
	return strings.EqualFold(string(e.SizeCategory), string(SizeLarge))
}

// ParseSizeCategory normalises a catalog size label
func ParseSizeCategory(s string) SizeCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "large":
		return SizeLarge
	case "medium":
		return SizeMedium
	default:
		return SizeSmall
	}
}
