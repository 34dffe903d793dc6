package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"kiosk-inventory-backend/internal/domain"
)

func TestToStatusError(t *testing.T) {
	insufficient := fmt.Errorf("borrow: %w", &domain.InsufficientStockError{EquipmentID: "EQ-1", Requested: 3, Available: 2})

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"InsufficientStock", insufficient, codes.FailedPrecondition},
		{"NotFound", fmt.Errorf("equipment x: %w", domain.ErrNotFound), codes.NotFound},
		{"InvalidTransition", domain.ErrInvalidTransition, codes.FailedPrecondition},
		{"Busy", domain.ErrBusy, codes.Unavailable},
		{"Validation", domain.NewValidationError("quantity", "must be positive"), codes.InvalidArgument},
		{"Deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"Canceled", context.Canceled, codes.Canceled},
		{"PassThrough", status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied},
		{"Unknown", errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatusError(tt.err)))
		})
	}

	t.Run("InsufficientStockDetail", func(t *testing.T) {
		available, ok := AvailableFromStatus(toStatusError(insufficient))
		require.True(t, ok)
		assert.Equal(t, int64(2), available)
	})

	t.Run("InternalHidesCause", func(t *testing.T) {
		st, _ := status.FromError(toStatusError(errors.New("password=hunter2")))
		assert.Equal(t, "internal error", st.Message())
	})

	assert.NoError(t, toStatusError(nil))
}

func TestFields(t *testing.T) {
	req, err := structpb.NewStruct(map[string]any{
		"quantity":   4,
		"fraction":   2.5,
		"huge":       float64(math.MaxInt32) + 1,
		"label":      "  Pending ",
		"negative":   -3,
		"nothing":    nil,
		"due_at":     "2026-06-01T10:00:00Z",
		"bad_time":   "June 1st",
		"wrong_kind": "4",
	})
	require.NoError(t, err)
	f := requestFields(req)

	n, err := f.whole("quantity", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = f.whole("missing", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.whole("nothing", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	for _, key := range []string{"fraction", "huge", "wrong_kind"} {
		_, err = f.whole(key, 0)
		assert.ErrorIs(t, err, domain.ErrValidation, key)
	}

	_, err = f.id("negative")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.id("missing")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, "Pending", f.str("label"))
	assert.Nil(t, f.optionalString("nothing"))

	due, err := f.time("due_at")
	require.NoError(t, err)
	assert.Equal(t, 2026, due.Year())
	_, err = f.time("bad_time")
	assert.ErrorIs(t, err, domain.ErrValidation)

	ts, err := f.optionalTime("missing")
	require.NoError(t, err)
	assert.Nil(t, ts)
}
