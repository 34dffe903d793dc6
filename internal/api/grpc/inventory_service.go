package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// InventoryServiceName is the fully qualified gRPC service name. Messages
// are google.protobuf.Struct documents so kiosk clients need no generated
// stubs; field names follow the JSON names of the domain types.
const InventoryServiceName = "kiosk.inventory.v1.InventoryService"

// InventoryServer is the engine API served to kiosks and staff tools
type InventoryServer interface {
	GetStockSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Borrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Return(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveBorrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectBorrow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateMaintenanceTicket(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMaintenanceTicket(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMaintenanceTicket(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMaintenanceTicket(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMaintenanceTickets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MaintenanceStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(InventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + InventoryServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func method(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{MethodName: name, Handler: unaryHandler(name, call)}
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		method("GetStockSnapshot", InventoryServer.GetStockSnapshot),
		method("Borrow", InventoryServer.Borrow),
		method("Return", InventoryServer.Return),
		method("GetTransaction", InventoryServer.GetTransaction),
		method("ApproveBorrow", InventoryServer.ApproveBorrow),
		method("RejectBorrow", InventoryServer.RejectBorrow),
		method("CreateMaintenanceTicket", InventoryServer.CreateMaintenanceTicket),
		method("UpdateMaintenanceTicket", InventoryServer.UpdateMaintenanceTicket),
		method("DeleteMaintenanceTicket", InventoryServer.DeleteMaintenanceTicket),
		method("GetMaintenanceTicket", InventoryServer.GetMaintenanceTicket),
		method("ListMaintenanceTickets", InventoryServer.ListMaintenanceTickets),
		method("MaintenanceStatistics", InventoryServer.MaintenanceStatistics),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kiosk/inventory/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

// InventoryClient calls InventoryService methods by name
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+InventoryServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
