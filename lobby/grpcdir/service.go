package grpcdir

import (
	"context"

	"dolphinretro/lobby"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName        = "dolphinretro.lobby.Directory"
	listSessionsMethod = "/" + serviceName + "/ListSessions"
)

// DirectoryServer is the server side of the Directory service.
type DirectoryServer interface {
	ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type directoryServer struct {
	dir lobby.Directory
}

func (s directoryServer) ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var lr listRequest
	if err := fromStruct(req, &lr); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad list request: %v", err)
	}

	sessions, err := s.dir.List(ctx, lr.Filters)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "list sessions: %v", err)
	}
	if sessions == nil {
		sessions = []lobby.Session{}
	}

	rsp, err := toStruct(listResponse{Sessions: sessions})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode sessions: %v", err)
	}
	return rsp, nil
}

func listSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirectoryServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listSessionsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DirectoryServer).ListSessions(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListSessions",
			Handler:    listSessionsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dolphinretro/lobby/directory",
}

// RegisterDirectoryServer serves dir's sessions on s.
func RegisterDirectoryServer(s grpc.ServiceRegistrar, dir lobby.Directory) {
	s.RegisterService(&serviceDesc, directoryServer{dir: dir})
}
