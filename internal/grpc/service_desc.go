package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "movra.currency.v1.CurrencyService"

const (
	methodConvert            = "/" + ServiceName + "/Convert"
	methodDetectCurrency     = "/" + ServiceName + "/DetectCurrency"
	methodCurrencyForCountry = "/" + ServiceName + "/CurrencyForCountry"
	methodGetSnapshot        = "/" + ServiceName + "/GetSnapshot"
)

// CurrencyServiceServer is the server API for the currency service.
// Messages are google.protobuf.Struct values.
type CurrencyServiceServer interface {
	Convert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DetectCurrency(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrencyForCountry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedCurrencyServiceServer can be embedded for forward compatibility
type UnimplementedCurrencyServiceServer struct{}

func (UnimplementedCurrencyServiceServer) Convert(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Convert not implemented")
}

func (UnimplementedCurrencyServiceServer) DetectCurrency(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DetectCurrency not implemented")
}

func (UnimplementedCurrencyServiceServer) CurrencyForCountry(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CurrencyForCountry not implemented")
}

func (UnimplementedCurrencyServiceServer) GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSnapshot not implemented")
}

// RegisterCurrencyServiceServer registers srv with s
func RegisterCurrencyServiceServer(s grpc.ServiceRegistrar, srv CurrencyServiceServer) {
	s.RegisterService(&CurrencyServiceDesc, srv)
}

type unaryMethod func(CurrencyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CurrencyServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CurrencyServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CurrencyServiceDesc is the grpc.ServiceDesc for the currency service
var CurrencyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CurrencyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Convert",
			Handler:    unaryHandler(methodConvert, CurrencyServiceServer.Convert),
		},
		{
			MethodName: "DetectCurrency",
			Handler:    unaryHandler(methodDetectCurrency, CurrencyServiceServer.DetectCurrency),
		},
		{
			MethodName: "CurrencyForCountry",
			Handler:    unaryHandler(methodCurrencyForCountry, CurrencyServiceServer.CurrencyForCountry),
		},
		{
			MethodName: "GetSnapshot",
			Handler:    unaryHandler(methodGetSnapshot, CurrencyServiceServer.GetSnapshot),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "movra/currency/v1/currency.proto",
}

// CurrencyServiceClient is the client API for the currency service
type CurrencyServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCurrencyServiceClient creates a client over cc
func NewCurrencyServiceClient(cc grpc.ClientConnInterface) *CurrencyServiceClient {
	return &CurrencyServiceClient{cc: cc}
}

func (c *CurrencyServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CurrencyServiceClient) Convert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodConvert, in, opts...)
}

func (c *CurrencyServiceClient) DetectCurrency(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodDetectCurrency, in, opts...)
}

func (c *CurrencyServiceClient) CurrencyForCountry(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCurrencyForCountry, in, opts...)
}

func (c *CurrencyServiceClient) GetSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetSnapshot, in, opts...)
}
