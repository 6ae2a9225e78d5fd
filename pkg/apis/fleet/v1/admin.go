// Package v1 holds the Go bindings of the fleethub.v1.FleetAdmin service
// declared in api/proto/fleethub/v1/admin.proto.
//
// Every message of the service is a protobuf well-known type, so the
// bindings are written by hand instead of running protoc: the client and
// server types below, plus the file descriptor built in descriptor.go.
// Keep the three in step with admin.proto.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "fleethub.v1.FleetAdmin"

const (
	FleetAdmin_Dispatch_FullMethodName    = "/" + ServiceName + "/Dispatch"
	FleetAdmin_RegisterCar_FullMethodName = "/" + ServiceName + "/RegisterCar"
	FleetAdmin_DeleteCar_FullMethodName   = "/" + ServiceName + "/DeleteCar"
	FleetAdmin_MarkFault_FullMethodName   = "/" + ServiceName + "/MarkFault"
	FleetAdmin_Save_FullMethodName        = "/" + ServiceName + "/Save"
)

// FleetAdminServer is the server API for the FleetAdmin service.
//
// Dispatch takes the command name followed by its string arguments and returns
// the command result. RegisterCar takes {"id","name","settings","info"} and
// returns the registered vehicle. MarkFault takes {"id","reason"}.
type FleetAdminServer interface {
	Dispatch(context.Context, *structpb.ListValue) (*structpb.Value, error)
	RegisterCar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCar(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	MarkFault(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Save(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// FleetAdminClient is the client API for the FleetAdmin service.
type FleetAdminClient interface {
	Dispatch(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.Value, error)
	RegisterCar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteCar(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	MarkFault(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Save(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type fleetAdminClient struct {
	cc grpc.ClientConnInterface
}

func NewFleetAdminClient(cc grpc.ClientConnInterface) FleetAdminClient {
	return &fleetAdminClient{cc}
}

func (c *fleetAdminClient) Dispatch(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.Value, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, FleetAdmin_Dispatch_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetAdminClient) RegisterCar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FleetAdmin_RegisterCar_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetAdminClient) DeleteCar(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FleetAdmin_DeleteCar_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetAdminClient) MarkFault(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FleetAdmin_MarkFault_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetAdminClient) Save(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FleetAdmin_Save_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterFleetAdminServer(s grpc.ServiceRegistrar, srv FleetAdminServer) {
	s.RegisterService(&FleetAdmin_ServiceDesc, srv)
}

func _FleetAdmin_Dispatch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetAdminServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FleetAdmin_Dispatch_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FleetAdminServer).Dispatch(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _FleetAdmin_RegisterCar_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetAdminServer).RegisterCar(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FleetAdmin_RegisterCar_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FleetAdminServer).RegisterCar(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _FleetAdmin_DeleteCar_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetAdminServer).DeleteCar(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FleetAdmin_DeleteCar_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FleetAdminServer).DeleteCar(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _FleetAdmin_MarkFault_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetAdminServer).MarkFault(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FleetAdmin_MarkFault_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FleetAdminServer).MarkFault(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _FleetAdmin_Save_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetAdminServer).Save(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FleetAdmin_Save_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FleetAdminServer).Save(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// FleetAdmin_ServiceDesc is the grpc.ServiceDesc for the FleetAdmin service.
var FleetAdmin_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FleetAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dispatch", Handler: _FleetAdmin_Dispatch_Handler},
		{MethodName: "RegisterCar", Handler: _FleetAdmin_RegisterCar_Handler},
		{MethodName: "DeleteCar", Handler: _FleetAdmin_DeleteCar_Handler},
		{MethodName: "MarkFault", Handler: _FleetAdmin_MarkFault_Handler},
		{MethodName: "Save", Handler: _FleetAdmin_Save_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: AdminProtoPath,
}
