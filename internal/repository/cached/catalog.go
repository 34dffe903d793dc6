package cached

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
)

// Catalog keeps recently used equipment entries in memory. The catalog is
// read-only to the engine, so entries only age out.
type Catalog struct {
	next  repository.EquipmentCatalog
	cache *expirable.LRU[string, domain.Equipment]
}

func NewCatalog(next repository.EquipmentCatalog, size int, ttl time.Duration) *Catalog {
	return &Catalog{
		next:  next,
		cache: expirable.NewLRU[string, domain.Equipment](size, nil, ttl),
	}
}

func (c *Catalog) GetByID(ctx context.Context, equipmentID string) (*domain.Equipment, error) {
	if eq, ok := c.cache.Get(equipmentID); ok {
		return &eq, nil
	}

	eq, err := c.next.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(equipmentID, *eq)
	return eq, nil
}

// Purge drops every cached entry
func (c *Catalog) Purge() {
	c.cache.Purge()
}
