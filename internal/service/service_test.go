package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository/memory"
	"kiosk-inventory-backend/internal/service"
)

const penaltyPerDay = 1000

// MockNotifier records engine events
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, ev *domain.Event) {
	m.Called(ctx, ev)
}

func (m *MockNotifier) events(t domain.EventType) []*domain.Event {
	var out []*domain.Event
	for _, call := range m.Calls {
		if ev, ok := call.Arguments.Get(1).(*domain.Event); ok && ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store        *memory.Store
	clock        *testClock
	notifier     *MockNotifier
	ledger       service.StockLedger
	coordinator  service.ReservationCoordinator
	transactions service.TransactionService
	maintenance  service.MaintenanceService
}

func newHarness(t *testing.T, lockTimeout time.Duration, catalog ...domain.Equipment) *harness {
	t.Helper()
	return buildHarness(lockTimeout, catalog...)
}

func buildHarness(lockTimeout time.Duration, catalog ...domain.Equipment) *harness {
	h := &harness{
		store:    memory.NewStore(catalog, lockTimeout),
		clock:    &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		notifier: new(MockNotifier),
	}
	h.notifier.On("Notify", mock.Anything, mock.Anything).Return()

	clock := service.Clock(h.clock.Now)
	h.ledger = service.NewStockLedger(h.store.Catalog(), h.store.Stock(), 1, clock)
	h.coordinator = service.NewReservationCoordinator(h.store, h.ledger, h.notifier, clock)
	h.transactions = service.NewTransactionService(h.store, h.coordinator, h.store.Catalog(), h.store.Transactions(), h.notifier, penaltyPerDay, clock)
	h.maintenance = service.NewMaintenanceService(h.coordinator, h.store.Maintenance(), 2, clock)
	return h
}

func (h *harness) stock(t *testing.T, equipmentID string) *domain.StockRecord {
	t.Helper()
	rec, err := h.ledger.Snapshot(context.Background(), equipmentID)
	require.NoError(t, err)
	return rec
}

func (h *harness) borrow(ctx context.Context, equipmentID string, qty int64) (*domain.BorrowTransaction, error) {
	return h.transactions.Borrow(ctx, service.BorrowRequest{
		EquipmentID: equipmentID,
		Quantity:    qty,
		DueAt:       h.clock.Now().Add(24 * time.Hour),
		ActorID:     "student-42",
	})
}

func (h *harness) ticket(ctx context.Context, equipmentID string, qty int64) (*domain.MaintenanceTicket, error) {
	return h.maintenance.Create(ctx, service.CreateTicketRequest{
		EquipmentID:      equipmentID,
		Quantity:         qty,
		IssueDescription: "torn stitching",
		ReportedBy:       "staff-1",
	})
}

func basketballs(total domain.Quantity) domain.Equipment {
	return domain.Equipment{ID: "EQ-001", Name: "Basketball", BaseQuantity: total, SizeCategory: domain.SizeSmall, Condition: "Good", MinimumStock: 1}
}

func volleyballNet(total domain.Quantity) domain.Equipment {
	return domain.Equipment{ID: "EQ-002", Name: "Volleyball Net", BaseQuantity: total, SizeCategory: domain.SizeLarge, Condition: "Good", MinimumStock: 1}
}

func statusPtr(s domain.MaintenanceStatus) *domain.MaintenanceStatus { return &s }

func int64Ptr(n int64) *int64 { return &n }

func strPtr(s string) *string { return &s }

func assertInvariant(t *testing.T, rec *domain.StockRecord) {
	t.Helper()
	want := rec.TotalQuantity - rec.BorrowedQuantity - rec.DamagedQuantity - rec.MaintenanceQuantity
	if want < 0 {
		want = 0
	}
	require.Equal(t, want, rec.AvailableQuantity, "available must equal total minus held units")
}
