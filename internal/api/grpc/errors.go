package grpc

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
)

const (
	errorDomain             = "inventory.kiosk"
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonInvalidTransition = "INVALID_TRANSITION"
	ReasonEquipmentBusy     = "EQUIPMENT_BUSY"
	MetadataAvailableUnits  = "available"
	MetadataRequestedUnits  = "requested"
	MetadataEquipmentID     = "equipment_id"
)

// toStatusError maps engine errors onto gRPC status codes. Insufficient
// stock carries the remaining count in an ErrorInfo detail.
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ise *domain.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonInsufficientStock, map[string]string{
			MetadataEquipmentID:    ise.EquipmentID,
			MetadataRequestedUnits: strconv.FormatInt(int64(ise.Requested), 10),
			MetadataAvailableUnits: strconv.FormatInt(int64(ise.Available), 10),
		})
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonInvalidTransition, nil)
	case errors.Is(err, domain.ErrBusy):
		return withInfo(codes.Unavailable, err.Error(), ReasonEquipmentBusy, nil)
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}

	logger.Error("Unhandled engine error", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func withInfo(code codes.Code, msg, reason string, md map[string]string) error {
	st, err := status.New(code, msg).WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: md,
	})
	if err != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}

// AvailableFromStatus reads the remaining unit count from an
// insufficient stock status returned by the server.
func AvailableFromStatus(err error) (int64, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetReason() != ReasonInsufficientStock {
			continue
		}
		n, err := strconv.ParseInt(info.GetMetadata()[MetadataAvailableUnits], 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
