package interceptor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"kiosk-inventory-backend/internal/security"
)

const (
	snapshotMethod = "/kiosk.inventory.v1.InventoryService/GetStockSnapshot"
	borrowMethod   = "/kiosk.inventory.v1.InventoryService/Borrow"
	approveMethod  = "/kiosk.inventory.v1.InventoryService/ApproveBorrow"
)

func TestAuthInterceptor_Unary(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef")
	unary := NewAuthInterceptor(tm).Unary()

	var seen metadata.MD
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen, _ = metadata.FromIncomingContext(ctx)
		return "ok", nil
	}
	call := func(ctx context.Context, method string) (interface{}, error) {
		seen = nil
		return unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	}
	withToken := func(t *testing.T, actorID string, roles ...string) context.Context {
		token, err := tm.GenerateActorToken(actorID, roles, time.Hour)
		require.NoError(t, err)
		// a client supplied actor-id must not survive
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token, "actor-id", "spoofed"))
	}

	t.Run("PublicSkipsAuth", func(t *testing.T) {
		res, err := call(context.Background(), snapshotMethod)
		require.NoError(t, err)
		assert.Equal(t, "ok", res)
	})

	t.Run("MissingMetadata", func(t *testing.T) {
		_, err := call(context.Background(), borrowMethod)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("MissingToken", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-other", "1"))
		_, err := call(ctx, borrowMethod)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("ActorInjected", func(t *testing.T) {
		_, err := call(withToken(t, "student-5", security.RoleKiosk), borrowMethod)
		require.NoError(t, err)
		assert.Equal(t, []string{"student-5"}, seen.Get("actor-id"))
		assert.Equal(t, []string{security.RoleKiosk}, seen.Get("actor-roles"))
	})

	t.Run("StaffOnly", func(t *testing.T) {
		_, err := call(withToken(t, "student-5", security.RoleKiosk), approveMethod)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))

		_, err = call(withToken(t, "staff-2", security.RoleMaintenance), approveMethod)
		assert.NoError(t, err)
	})
}
