// Package grpccas serves a storage.CAS over gRPC and provides the matching
// client.
//
// The service uses protobuf well-known wrapper types, so no generated code is
// needed:
//
//	service EnvelopeStore {
//	  rpc Put(google.protobuf.BytesValue)  returns (google.protobuf.StringValue);
//	  rpc Get(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	  rpc Has(google.protobuf.StringValue) returns (google.protobuf.BoolValue);
//	}
package grpccas

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "txkit.storage.v1.EnvelopeStore"

// EnvelopeStoreServer is the server API of the service.
type EnvelopeStoreServer interface {
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedEnvelopeStoreServer can be embedded to have forward compatible implementations.
type UnimplementedEnvelopeStoreServer struct{}

func (UnimplementedEnvelopeStoreServer) Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Put not implemented")
}

func (UnimplementedEnvelopeStoreServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}

func (UnimplementedEnvelopeStoreServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}

// RegisterEnvelopeStoreServer registers srv on s.
func RegisterEnvelopeStoreServer(s grpc.ServiceRegistrar, srv EnvelopeStoreServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler[Req, Resp any](name string, call func(EnvelopeStoreServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EnvelopeStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EnvelopeStoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnvelopeStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: unaryHandler("Put", EnvelopeStoreServer.Put)},
		{MethodName: "Get", Handler: unaryHandler("Get", EnvelopeStoreServer.Get)},
		{MethodName: "Has", Handler: unaryHandler("Has", EnvelopeStoreServer.Has)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "txkit/storage/v1/envelope_store.proto",
}

type envelopeStoreClient struct{ cc grpc.ClientConnInterface }

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(name), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c envelopeStoreClient) put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "Put", in)
}

func (c envelopeStoreClient) get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "Get", in)
}

func (c envelopeStoreClient) has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, "Has", in)
}
