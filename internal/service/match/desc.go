package match

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct, so any gRPC client can call it
// without generated stubs.
const ServiceName = "anonchat.v1.Match"

// MatchServer is the server API for the Match service.
type MatchServer interface {
	SetProfileField(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelSearch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Next(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stop(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Partner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GrantPremium(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns "/anonchat.v1.Match/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// AdminMethods may only be called with an admin token.
var AdminMethods = map[string]bool{
	FullMethod("GrantPremium"): true,
}

type unaryFunc func(MatchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MatchServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is registered with grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SetProfileField", MatchServer.SetProfileField),
		unary("GetProfile", MatchServer.GetProfile),
		unary("RequestMatch", MatchServer.RequestMatch),
		unary("CancelSearch", MatchServer.CancelSearch),
		unary("Next", MatchServer.Next),
		unary("Stop", MatchServer.Stop),
		unary("Partner", MatchServer.Partner),
		unary("GrantPremium", MatchServer.GrantPremium),
		unary("Stats", MatchServer.Stats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "anonchat/v1/match.proto",
}
