package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/repository"
	"kiosk-inventory-backend/internal/service"
)

type InventoryHandler struct {
	ledger         service.StockLedger
	transactionSvc service.TransactionService
	maintenanceSvc service.MaintenanceService
}

func NewInventoryHandler(ledger service.StockLedger, transactionSvc service.TransactionService, maintenanceSvc service.MaintenanceService) *InventoryHandler {
	return &InventoryHandler{
		ledger:         ledger,
		transactionSvc: transactionSvc,
		maintenanceSvc: maintenanceSvc,
	}
}

func respond(body map[string]any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatusError(err)
	}
	out, err := structpb.NewStruct(body)
	if err != nil {
		return nil, toStatusError(err)
	}
	return out, nil
}

func (h *InventoryHandler) GetStockSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(req)
	equipmentID := f.str("equipment_id")
	if equipmentID == "" {
		return respond(nil, domain.NewValidationError("equipment_id", "is required"))
	}
	rec, err := h.ledger.Snapshot(ctx, equipmentID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"stock": MapStockRecordToProto(rec)}, nil)
}

func (h *InventoryHandler) Borrow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := GetActorIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	f := requestFields(req)
	qty, err := f.whole("quantity", 1)
	if err != nil {
		return respond(nil, err)
	}
	dueAt, err := f.time("due_at")
	if err != nil {
		return respond(nil, err)
	}

	tx, err := h.transactionSvc.Borrow(ctx, service.BorrowRequest{
		EquipmentID:     f.str("equipment_id"),
		Quantity:        qty,
		DueAt:           dueAt,
		ActorID:         actorID,
		ConditionBefore: f.str("condition_before"),
		Notes:           f.str("notes"),
	})
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{
		"transaction":       MapTransactionToProto(tx),
		"requires_approval": tx.Status == domain.TransactionStatusPendingApproval,
	}, nil)
}

func (h *InventoryHandler) Return(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(req)
	id, err := f.id("transaction_id")
	if err != nil {
		return respond(nil, err)
	}
	tx, err := h.transactionSvc.Return(ctx, id, f.str("condition"), f.str("notes"))
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{
		"transaction":   MapTransactionToProto(tx),
		"penalty_cents": tx.PenaltyCents,
	}, nil)
}

func (h *InventoryHandler) GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestFields(req).id("transaction_id")
	if err != nil {
		return respond(nil, err)
	}
	tx, err := h.transactionSvc.GetTransaction(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"transaction": MapTransactionToProto(tx)}, nil)
}

func (h *InventoryHandler) ApproveBorrow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	approverID, err := GetActorIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requestFields(req).id("transaction_id")
	if err != nil {
		return respond(nil, err)
	}
	tx, err := h.transactionSvc.ApproveBorrow(ctx, id, approverID)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"transaction": MapTransactionToProto(tx)}, nil)
}

func (h *InventoryHandler) RejectBorrow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	approverID, err := GetActorIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	f := requestFields(req)
	id, err := f.id("transaction_id")
	if err != nil {
		return respond(nil, err)
	}
	tx, err := h.transactionSvc.RejectBorrow(ctx, id, approverID, f.str("reason"))
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"transaction": MapTransactionToProto(tx)}, nil)
}

func (h *InventoryHandler) CreateMaintenanceTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	reporterID, err := GetActorIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	f := requestFields(req)
	qty, err := f.whole("quantity", 1)
	if err != nil {
		return respond(nil, err)
	}
	ticket, err := h.maintenanceSvc.Create(ctx, service.CreateTicketRequest{
		EquipmentID:      f.str("equipment_id"),
		Quantity:         qty,
		IssueDescription: f.str("issue_description"),
		MaintenanceType:  f.str("maintenance_type"),
		Severity:         f.str("severity"),
		ReportedBy:       reporterID,
		AssignedTo:       f.str("assigned_to"),
		BeforeCondition:  f.str("before_condition"),
	})
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"ticket": MapTicketToProto(ticket)}, nil)
}

func (h *InventoryHandler) UpdateMaintenanceTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(req)
	id, err := f.id("ticket_id")
	if err != nil {
		return respond(nil, err)
	}
	upd, err := ticketUpdateFromRequest(f)
	if err != nil {
		return respond(nil, err)
	}
	ticket, err := h.maintenanceSvc.Update(ctx, id, upd)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"ticket": MapTicketToProto(ticket)}, nil)
}

func ticketUpdateFromRequest(f fields) (service.TicketUpdate, error) {
	var upd service.TicketUpdate
	if f.has("status") {
		st, err := domain.ParseMaintenanceStatus(f.str("status"))
		if err != nil {
			return upd, err
		}
		upd.Status = &st
	}
	if f.has("quantity") {
		n, err := f.whole("quantity", 0)
		if err != nil {
			return upd, err
		}
		upd.Quantity = &n
	}
	if f.has("cost_cents") {
		n, err := f.whole("cost_cents", 0)
		if err != nil {
			return upd, err
		}
		upd.CostCents = &n
	}
	if f.has("downtime_hours") {
		h := f["downtime_hours"].GetNumberValue()
		if h < 0 {
			return upd, domain.NewValidationError("downtime_hours", "cannot be negative")
		}
		upd.DowntimeHours = &h
	}
	upd.AssignedTo = f.optionalString("assigned_to")
	upd.BeforeCondition = f.optionalString("before_condition")
	upd.AfterCondition = f.optionalString("after_condition")

	var err error
	if upd.StartedAt, err = f.optionalTime("started_at"); err != nil {
		return upd, err
	}
	if upd.CompletedAt, err = f.optionalTime("completed_at"); err != nil {
		return upd, err
	}
	return upd, nil
}

func (h *InventoryHandler) DeleteMaintenanceTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestFields(req).id("ticket_id")
	if err != nil {
		return respond(nil, err)
	}
	if err := h.maintenanceSvc.Delete(ctx, id); err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"success": true}, nil)
}

func (h *InventoryHandler) GetMaintenanceTicket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestFields(req).id("ticket_id")
	if err != nil {
		return respond(nil, err)
	}
	ticket, err := h.maintenanceSvc.Get(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"ticket": MapTicketToProto(ticket)}, nil)
}

func (h *InventoryHandler) ListMaintenanceTickets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := requestFields(req)
	filter := repository.TicketFilter{EquipmentID: f.str("equipment_id")}
	if f.has("status") {
		st, err := domain.ParseMaintenanceStatus(f.str("status"))
		if err != nil {
			return respond(nil, err)
		}
		filter.Status = st
	}
	tickets, err := h.maintenanceSvc.List(ctx, filter)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"tickets": mapTicketsToProto(tickets)}, nil)
}

func (h *InventoryHandler) MaintenanceStatistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stats, err := h.maintenanceSvc.Statistics(ctx)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{"statistics": MapStatsToProto(stats)}, nil)
}
