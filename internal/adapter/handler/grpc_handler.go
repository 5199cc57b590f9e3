package handler

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

// VendingServiceName is the fully qualified gRPC service name. Messages are
// google.protobuf.Struct values, so clients need no generated stubs.
const VendingServiceName = "vending.v1.VendingMachine"

type VendingServer interface {
	Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Vend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Lookup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Balance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var VendingServiceDesc = grpc.ServiceDesc{
	ServiceName: VendingServiceName,
	HandlerType: (*VendingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Deposit", VendingServer.Deposit),
		unaryMethod("Vend", VendingServer.Vend),
		unaryMethod("Lookup", VendingServer.Lookup),
		unaryMethod("Balance", VendingServer.Balance),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vending/v1/vending.proto",
}

func RegisterVendingServer(s grpc.ServiceRegistrar, srv VendingServer) {
	s.RegisterService(&VendingServiceDesc, srv)
}

func unaryMethod(name string, call func(VendingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + VendingServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VendingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(VendingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type GRPCHandler struct {
	vendingService *service.VendingService
}

func NewGRPCHandler(vendingService *service.VendingService) *GRPCHandler {
	return &GRPCHandler{vendingService: vendingService}
}

// Deposit expects {"amount": "<decimal>"}.
func (h *GRPCHandler) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	amount, err := decimalField(req, "amount")
	if err != nil {
		return nil, err
	}

	balance, err := h.vendingService.Deposit(ctx, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return newStruct(map[string]interface{}{"balance": balance.String()})
}

// Vend expects {"request_id"?, "selection", "quantity"}. Business failures
// are reported in the response body, not as RPC errors.
func (h *GRPCHandler) Vend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	name := fields["selection"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "selection is required")
	}
	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}

	selection, err := domain.ParseSelection(name)
	if err != nil {
		return vendFailure(domain.ErrInvalidSelection)
	}

	receipt, err := h.vendingService.Vend(ctx, fields["request_id"].GetStringValue(), selection, quantity)
	if err != nil {
		if vendFailureStatus(err) == http.StatusInternalServerError {
			return nil, status.Error(codes.Internal, "internal error")
		}
		return vendFailure(err)
	}

	return newStruct(map[string]interface{}{
		"success":    true,
		"message":    "enjoy your " + selection.String(),
		"receipt_id": receipt.ID,
		"total":      receipt.Total.String(),
		"balance":    receipt.BalanceAfter.String(),
	})
}

// Lookup expects {"selection"} and returns {"found", "price", "quantity"}.
func (h *GRPCHandler) Lookup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	selection, err := domain.ParseSelection(req.GetFields()["selection"].GetStringValue())
	if err != nil {
		return newStruct(map[string]interface{}{"found": false})
	}

	item, ok := h.vendingService.Lookup(selection)
	if !ok {
		return newStruct(map[string]interface{}{"found": false})
	}
	return newStruct(map[string]interface{}{
		"found":    true,
		"price":    item.Price.String(),
		"quantity": item.Quantity,
	})
}

func (h *GRPCHandler) Balance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return newStruct(map[string]interface{}{"balance": h.vendingService.Balance().String()})
}

func vendFailure(err error) (*structpb.Struct, error) {
	resp := map[string]interface{}{
		"success": false,
		"message": vendFailureMessage(err),
	}
	var fundsErr *domain.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		resp["required"] = fundsErr.Required.String()
	}
	return newStruct(resp)
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

// decimalField accepts either a string or a number.
func decimalField(req *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a finite number", key)
		}
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a string or number", key)
	}
}

func intField(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}
