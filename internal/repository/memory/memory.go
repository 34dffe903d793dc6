// Package memory is an in-process store for single-node kiosks and tests.
// Critical sections are serialised per equipment id with a weighted
// semaphore; writes made inside a section are staged and applied together.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
)

type Store struct {
	mu           sync.RWMutex
	catalog      map[string]domain.Equipment
	stock        map[string]*domain.StockRecord
	transactions map[int64]*domain.BorrowTransaction
	tickets      map[int64]*domain.MaintenanceTicket
	nextTxID     int64
	nextTicketID int64

	locks       *keyedLocks
	lockTimeout time.Duration
	now         func() time.Time
}

func NewStore(catalog []domain.Equipment, lockTimeout time.Duration) *Store {
	s := &Store{
		catalog:      make(map[string]domain.Equipment, len(catalog)),
		stock:        make(map[string]*domain.StockRecord),
		transactions: make(map[int64]*domain.BorrowTransaction),
		tickets:      make(map[int64]*domain.MaintenanceTicket),
		locks:        newKeyedLocks(),
		lockTimeout:  lockTimeout,
		now:          time.Now,
	}
	for _, eq := range catalog {
		s.catalog[eq.ID] = eq
	}
	return s
}

// WithEquipmentLock implements repository.EquipmentLocker
func (s *Store) WithEquipmentLock(ctx context.Context, equipmentID string, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	release, err := s.locks.acquire(ctx, equipmentID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	w := newWork(s)
	if err := fn(ctx, w); err != nil {
		return err
	}
	w.commit()
	return nil
}

func (s *Store) Catalog() repository.EquipmentCatalog {
	return &catalogRepository{s: s}
}

// Stock, Transactions and Maintenance return repositories that write
// straight through, outside any critical section.
func (s *Store) Stock() repository.StockRepository {
	return &stockRepository{s: s}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepository{s: s}
}

func (s *Store) Maintenance() repository.MaintenanceRepository {
	return &maintenanceRepository{s: s}
}

type keyedLocks struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{sems: make(map[string]*semaphore.Weighted)}
}

func (k *keyedLocks) get(key string) *semaphore.Weighted {
	k.mu.Lock()
	defer k.mu.Unlock()
	sem, ok := k.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		k.sems[key] = sem
	}
	return sem
}

func (k *keyedLocks) acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	sem := k.get(key)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: equipment %s locked for more than %s", domain.ErrBusy, key, timeout)
		}
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}

// work stages the writes of one critical section
type work struct {
	s            *Store
	stock        map[string]*domain.StockRecord
	transactions map[int64]*domain.BorrowTransaction
	tickets      map[int64]*domain.MaintenanceTicket
	deleted      map[int64]bool
}

func newWork(s *Store) *work {
	return &work{
		s:            s,
		stock:        make(map[string]*domain.StockRecord),
		transactions: make(map[int64]*domain.BorrowTransaction),
		tickets:      make(map[int64]*domain.MaintenanceTicket),
		deleted:      make(map[int64]bool),
	}
}

func (w *work) Stock() repository.StockRepository {
	return &stockRepository{s: w.s, w: w}
}

func (w *work) Transactions() repository.TransactionRepository {
	return &transactionRepository{s: w.s, w: w}
}

func (w *work) Maintenance() repository.MaintenanceRepository {
	return &maintenanceRepository{s: w.s, w: w}
}

func (w *work) commit() {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	for id, rec := range w.stock {
		w.s.stock[id] = rec
	}
	for id, t := range w.transactions {
		w.s.transactions[id] = t
	}
	for id, m := range w.tickets {
		w.s.tickets[id] = m
	}
	for id := range w.deleted {
		delete(w.s.tickets, id)
	}
}
