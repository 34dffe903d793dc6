package memory

import (
	"context"
	"sort"
	"time"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
)

type catalogRepository struct {
	s *Store
}

func (r *catalogRepository) GetByID(_ context.Context, equipmentID string) (*domain.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	eq, ok := r.s.catalog[equipmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &eq, nil
}

// stockRepository reads staged rows first when bound to a critical section
type stockRepository struct {
	s *Store
	w *work
}

func (r *stockRepository) GetForUpdate(ctx context.Context, equipmentID string) (*domain.StockRecord, error) {
	return r.Get(ctx, equipmentID)
}

func (r *stockRepository) Get(_ context.Context, equipmentID string) (*domain.StockRecord, error) {
	if r.w != nil {
		if rec, ok := r.w.stock[equipmentID]; ok {
			return rec.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.stock[equipmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *stockRepository) Insert(ctx context.Context, rec *domain.StockRecord) error {
	if _, err := r.Get(ctx, rec.EquipmentID); err == nil {
		return nil
	}
	return r.write(rec)
}

func (r *stockRepository) Save(ctx context.Context, rec *domain.StockRecord) error {
	if _, err := r.Get(ctx, rec.EquipmentID); err != nil {
		return err
	}
	return r.write(rec)
}

func (r *stockRepository) write(rec *domain.StockRecord) error {
	if r.w != nil {
		r.w.stock[rec.EquipmentID] = rec.Clone()
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stock[rec.EquipmentID] = rec.Clone()
	return nil
}

func (r *stockRepository) ListEquipmentIDs(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	ids := make([]string, 0, len(r.s.stock))
	for id := range r.s.stock {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

type transactionRepository struct {
	s *Store
	w *work
}

func (r *transactionRepository) Create(_ context.Context, t *domain.BorrowTransaction) error {
	now := r.s.now()
	r.s.mu.Lock()
	r.s.nextTxID++
	t.ID = r.s.nextTxID
	r.s.mu.Unlock()

	t.CreatedAt, t.UpdatedAt = now, now
	return r.write(t)
}

func (r *transactionRepository) GetByID(_ context.Context, id int64) (*domain.BorrowTransaction, error) {
	if r.w != nil {
		if t, ok := r.w.transactions[id]; ok {
			c := *t
			return &c, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.BorrowTransaction) error {
	if _, err := r.GetByID(ctx, t.ID); err != nil {
		return err
	}
	t.UpdatedAt = r.s.now()
	return r.write(t)
}

func (r *transactionRepository) write(t *domain.BorrowTransaction) error {
	c := *t
	if r.w != nil {
		r.w.transactions[t.ID] = &c
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transactions[t.ID] = &c
	return nil
}

func (r *transactionRepository) ListOverdue(_ context.Context, now time.Time) ([]domain.BorrowTransaction, error) {
	r.s.mu.RLock()
	var txs []domain.BorrowTransaction
	for _, t := range r.s.transactions {
		if t.Status == domain.TransactionStatusActive && t.ExpectedReturnAt.Before(now) {
			txs = append(txs, *t)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(txs, func(i, j int) bool {
		return txs[i].ExpectedReturnAt.Before(txs[j].ExpectedReturnAt)
	})
	return txs, nil
}

type maintenanceRepository struct {
	s *Store
	w *work
}

func (r *maintenanceRepository) Create(_ context.Context, m *domain.MaintenanceTicket) error {
	now := r.s.now()
	r.s.mu.Lock()
	r.s.nextTicketID++
	m.ID = r.s.nextTicketID
	r.s.mu.Unlock()

	m.CreatedAt, m.UpdatedAt = now, now
	return r.write(m)
}

func (r *maintenanceRepository) GetByID(_ context.Context, id int64) (*domain.MaintenanceTicket, error) {
	if r.w != nil {
		if r.w.deleted[id] {
			return nil, domain.ErrNotFound
		}
		if m, ok := r.w.tickets[id]; ok {
			c := *m
			return &c, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (r *maintenanceRepository) Update(ctx context.Context, m *domain.MaintenanceTicket) error {
	if _, err := r.GetByID(ctx, m.ID); err != nil {
		return err
	}
	m.UpdatedAt = r.s.now()
	return r.write(m)
}

func (r *maintenanceRepository) write(m *domain.MaintenanceTicket) error {
	c := *m
	if r.w != nil {
		r.w.tickets[m.ID] = &c
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tickets[m.ID] = &c
	return nil
}

func (r *maintenanceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if r.w != nil {
		delete(r.w.tickets, id)
		r.w.deleted[id] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tickets, id)
	return nil
}

func (r *maintenanceRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	r.s.mu.RLock()
	var tickets []domain.MaintenanceTicket
	for _, m := range r.s.tickets {
		if filter.EquipmentID != "" && m.EquipmentID != filter.EquipmentID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		tickets = append(tickets, *m)
	}
	r.s.mu.RUnlock()

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].ID > tickets[j].ID
	})
	return tickets, nil
}

func (r *maintenanceRepository) Statistics(_ context.Context) (*domain.MaintenanceStats, error) {
	stats := &domain.MaintenanceStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var (
		downtime     float64
		withDowntime int64
	)
	for _, m := range r.s.tickets {
		stats.Total++
		stats.ByStatus[string(m.Status)]++
		stats.ByType[m.MaintenanceType]++
		stats.TotalCostCents += m.CostCents
		if m.DowntimeHours > 0 {
			downtime += m.DowntimeHours
			withDowntime++
		}
	}
	if withDowntime > 0 {
		stats.AverageDowntimeHours = downtime / float64(withDowntime)
	}
	return stats, nil
}
