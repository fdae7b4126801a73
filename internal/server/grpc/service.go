package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceName is the fully qualified gRPC service name.
const AuthServiceName = "gqlauth.v1.AuthService"

// Method names of the auth service.
const (
	MethodRegister           = "Register"
	MethodLogin              = "Login"
	MethodRefreshToken       = "RefreshToken"
	MethodViewer             = "Viewer"
	MethodDeleteCurrentToken = "DeleteCurrentToken"
	MethodDeleteAllTokens    = "DeleteAllTokens"
)

// FullMethod returns the path a client invokes for method.
func FullMethod(method string) string {
	return "/" + AuthServiceName + "/" + method
}

// AuthServiceServer is the server API of the auth service. Requests and
// responses are google.protobuf.Struct messages keyed like the GraphQL
// operations they back.
type AuthServiceServer interface {
	Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Viewer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteCurrentToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAllTokens(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&authServiceDesc, srv)
}

type unaryMethod func(srv AuthServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodRegister, Handler: unaryHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: MethodLogin, Handler: unaryHandler(MethodLogin, AuthServiceServer.Login)},
		{MethodName: MethodRefreshToken, Handler: unaryHandler(MethodRefreshToken, AuthServiceServer.RefreshToken)},
		{MethodName: MethodViewer, Handler: unaryHandler(MethodViewer, AuthServiceServer.Viewer)},
		{MethodName: MethodDeleteCurrentToken, Handler: unaryHandler(MethodDeleteCurrentToken, AuthServiceServer.DeleteCurrentToken)},
		{MethodName: MethodDeleteAllTokens, Handler: unaryHandler(MethodDeleteAllTokens, AuthServiceServer.DeleteAllTokens)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gqlauth/v1/auth.proto",
}
