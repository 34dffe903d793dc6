package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	api "kiosk-inventory-backend/internal/api/grpc"
	"kiosk-inventory-backend/internal/api/grpc/interceptor"
	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/notify"
	"kiosk-inventory-backend/internal/repository/memory"
	"kiosk-inventory-backend/internal/security"
	"kiosk-inventory-backend/internal/service"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type testServer struct {
	client *api.InventoryClient
	tokens security.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore([]domain.Equipment{
		{ID: "EQ-001", Name: "Basketball", BaseQuantity: 3, SizeCategory: domain.SizeSmall, Condition: "Good", MinimumStock: 1},
		{ID: "EQ-002", Name: "Volleyball Net", BaseQuantity: 1, SizeCategory: domain.SizeLarge, Condition: "Good", MinimumStock: 1},
	}, time.Second)
	ledger := service.NewStockLedger(store.Catalog(), store.Stock(), 1, nil)
	coordinator := service.NewReservationCoordinator(store, ledger, notify.Discard, nil)
	transactions := service.NewTransactionService(store, coordinator, store.Catalog(), store.Transactions(), notify.Discard, 1000, nil)
	maintenance := service.NewMaintenanceService(coordinator, store.Maintenance(), 1, nil)

	tokens := security.NewTokenManager(testSecret)
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(interceptor.NewAuthInterceptor(tokens).Unary()))
	api.RegisterInventoryServer(srv, api.NewInventoryHandler(ledger, transactions, maintenance))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testServer{client: api.NewInventoryClient(conn), tokens: tokens}
}

func (s *testServer) as(t *testing.T, actorID string, roles ...string) context.Context {
	t.Helper()
	token, err := s.tokens.GenerateActorToken(actorID, roles, time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func number(s *structpb.Struct, path ...string) float64 {
	v := structpb.NewStructValue(s)
	for _, key := range path {
		v = v.GetStructValue().GetFields()[key]
	}
	return v.GetNumberValue()
}

func text(s *structpb.Struct, path ...string) string {
	v := structpb.NewStructValue(s)
	for _, key := range path {
		v = v.GetStructValue().GetFields()[key]
	}
	return v.GetStringValue()
}

func dueTomorrow() string {
	return time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
}

func TestInventoryService_Snapshot(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("PublicWithoutToken", func(t *testing.T) {
		res, err := s.client.Call(ctx, "GetStockSnapshot", map[string]any{"equipment_id": "EQ-001"})
		require.NoError(t, err)
		assert.Equal(t, 3.0, number(res, "stock", "available_quantity"))
		assert.Equal(t, "Available", text(res, "stock", "availability_status"))
	})

	t.Run("UnknownEquipment", func(t *testing.T) {
		_, err := s.client.Call(ctx, "GetStockSnapshot", map[string]any{"equipment_id": "EQ-404"})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("MissingId", func(t *testing.T) {
		_, err := s.client.Call(ctx, "GetStockSnapshot", map[string]any{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestInventoryService_BorrowAndReturn(t *testing.T) {
	s := newTestServer(t)

	t.Run("RequiresToken", func(t *testing.T) {
		_, err := s.client.Call(context.Background(), "Borrow", map[string]any{"equipment_id": "EQ-001", "due_at": dueTomorrow()})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("RejectsBadToken", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer not-a-jwt")
		_, err := s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "due_at": dueTomorrow()})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	ctx := s.as(t, "student-7", security.RoleKiosk)
	var txID float64

	t.Run("Borrow", func(t *testing.T) {
		res, err := s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "quantity": 2, "due_at": dueTomorrow()})
		require.NoError(t, err)
		assert.Equal(t, "Active", text(res, "transaction", "status"))
		assert.Equal(t, "student-7", text(res, "transaction", "actor_id"))
		assert.False(t, res.GetFields()["requires_approval"].GetBoolValue())
		txID = number(res, "transaction", "id")
		assert.NotZero(t, txID)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		_, err := s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "quantity": 2, "due_at": dueTomorrow()})
		require.Equal(t, codes.FailedPrecondition, status.Code(err))
		available, ok := api.AvailableFromStatus(err)
		require.True(t, ok)
		assert.Equal(t, int64(1), available)
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "quantity": 1.5, "due_at": dueTomorrow()})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		_, err = s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "quantity": -1, "due_at": dueTomorrow()})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		_, err = s.client.Call(ctx, "Borrow", map[string]any{"equipment_id": "EQ-001", "due_at": "tomorrow"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Return", func(t *testing.T) {
		res, err := s.client.Call(ctx, "Return", map[string]any{"transaction_id": txID, "condition": "Damaged"})
		require.NoError(t, err)
		assert.Equal(t, "Damaged", text(res, "transaction", "status"))
		assert.Equal(t, 0.0, number(res, "penalty_cents"))

		snap, err := s.client.Call(ctx, "GetStockSnapshot", map[string]any{"equipment_id": "EQ-001"})
		require.NoError(t, err)
		assert.Equal(t, 2.0, number(snap, "stock", "available_quantity"))
		assert.Equal(t, 1.0, number(snap, "stock", "damaged_quantity"))
	})

	t.Run("DoubleReturn", func(t *testing.T) {
		_, err := s.client.Call(ctx, "Return", map[string]any{"transaction_id": txID})
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
		_, ok := api.AvailableFromStatus(err)
		assert.False(t, ok)
	})

	t.Run("GetTransaction", func(t *testing.T) {
		res, err := s.client.Call(ctx, "GetTransaction", map[string]any{"transaction_id": txID})
		require.NoError(t, err)
		assert.Equal(t, "Damaged", text(res, "transaction", "condition_after"))

		_, err = s.client.Call(ctx, "GetTransaction", map[string]any{"transaction_id": 4242})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}

func TestInventoryService_Approval(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.as(t, "student-7", security.RoleKiosk)
	staff := s.as(t, "staff-1", security.RoleAdmin)

	res, err := s.client.Call(kiosk, "Borrow", map[string]any{"equipment_id": "EQ-002", "due_at": dueTomorrow()})
	require.NoError(t, err)
	assert.True(t, res.GetFields()["requires_approval"].GetBoolValue())
	assert.Equal(t, "Pending Approval", text(res, "transaction", "status"))
	txID := number(res, "transaction", "id")

	_, err = s.client.Call(kiosk, "ApproveBorrow", map[string]any{"transaction_id": txID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	res, err = s.client.Call(staff, "ApproveBorrow", map[string]any{"transaction_id": txID})
	require.NoError(t, err)
	assert.Equal(t, "Active", text(res, "transaction", "status"))
	assert.Equal(t, "staff-1", text(res, "transaction", "approved_by"))

	_, err = s.client.Call(staff, "RejectBorrow", map[string]any{"transaction_id": txID, "reason": "too late"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestInventoryService_Maintenance(t *testing.T) {
	s := newTestServer(t)
	staff := s.as(t, "tech-3", security.RoleMaintenance)

	res, err := s.client.Call(staff, "CreateMaintenanceTicket", map[string]any{
		"equipment_id":      "EQ-001",
		"quantity":          2,
		"issue_description": "valve leak",
		"severity":          "High",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pending", text(res, "ticket", "status"))
	assert.Equal(t, "tech-3", text(res, "ticket", "reported_by"))
	ticketID := number(res, "ticket", "id")

	_, err = s.client.Call(staff, "CreateMaintenanceTicket", map[string]any{
		"equipment_id":      "EQ-001",
		"quantity":          2,
		"issue_description": "another",
	})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	available, ok := api.AvailableFromStatus(err)
	require.True(t, ok)
	assert.Equal(t, int64(1), available)

	res, err = s.client.Call(staff, "UpdateMaintenanceTicket", map[string]any{
		"ticket_id":       ticketID,
		"status":          "Completed",
		"after_condition": "Good",
		"cost_cents":      900,
		"downtime_hours":  1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Completed", text(res, "ticket", "status"))
	assert.NotEmpty(t, text(res, "ticket", "completed_at"))

	_, err = s.client.Call(staff, "UpdateMaintenanceTicket", map[string]any{"ticket_id": ticketID, "status": "Archived"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	res, err = s.client.Call(staff, "ListMaintenanceTickets", map[string]any{"equipment_id": "EQ-001"})
	require.NoError(t, err)
	assert.Len(t, res.GetFields()["tickets"].GetListValue().GetValues(), 1)

	res, err = s.client.Call(staff, "MaintenanceStatistics", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, number(res, "statistics", "total"))
	assert.Equal(t, 900.0, number(res, "statistics", "total_cost_cents"))

	res, err = s.client.Call(staff, "DeleteMaintenanceTicket", map[string]any{"ticket_id": ticketID})
	require.NoError(t, err)
	assert.True(t, res.GetFields()["success"].GetBoolValue())

	_, err = s.client.Call(staff, "GetMaintenanceTicket", map[string]any{"ticket_id": ticketID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	snap, err := s.client.Call(staff, "GetStockSnapshot", map[string]any{"equipment_id": "EQ-001"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, number(snap, "stock", "available_quantity"))
}
