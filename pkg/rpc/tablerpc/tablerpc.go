// Package tablerpc describes the TableService gRPC service. Messages
// are google.protobuf.Struct values produced by package wire, so the
// service needs no generated message types.
package tablerpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TableService_ListTables_FullMethodName = "/pokertable.TableService/ListTables"
	TableService_Play_FullMethodName       = "/pokertable.TableService/Play"
)

// PlayerMetadataKey is the metadata key carrying the player name.
const PlayerMetadataKey = "player-id"

// TableServiceClient is the client API for TableService.
type TableServiceClient interface {
	// ListTables returns a REPLY whose tables field lists every table.
	ListTables(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Play opens a session: requests go up, replies and table events
	// come down.
	Play(ctx context.Context, opts ...grpc.CallOption) (TableService_PlayClient, error)
}

type tableServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTableServiceClient(cc grpc.ClientConnInterface) TableServiceClient {
	return &tableServiceClient{cc}
}

func (c *tableServiceClient) ListTables(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, TableService_ListTables_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tableServiceClient) Play(ctx context.Context, opts ...grpc.CallOption) (TableService_PlayClient, error) {
	stream, err := c.cc.NewStream(ctx, &TableService_ServiceDesc.Streams[0], TableService_Play_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &tableServicePlayClient{stream}, nil
}

type TableService_PlayClient interface {
	Send(*structpb.Struct) error
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type tableServicePlayClient struct {
	grpc.ClientStream
}

func (x *tableServicePlayClient) Send(m *structpb.Struct) error {
	return x.ClientStream.SendMsg(m)
}

func (x *tableServicePlayClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// TableServiceServer is the server API for TableService.
type TableServiceServer interface {
	ListTables(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Play(TableService_PlayServer) error
}

// UnimplementedTableServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedTableServiceServer struct{}

func (UnimplementedTableServiceServer) ListTables(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListTables not implemented")
}

func (UnimplementedTableServiceServer) Play(TableService_PlayServer) error {
	return status.Errorf(codes.Unimplemented, "method Play not implemented")
}

func RegisterTableServiceServer(s grpc.ServiceRegistrar, srv TableServiceServer) {
	s.RegisterService(&TableService_ServiceDesc, srv)
}

func _TableService_ListTables_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableServiceServer).ListTables(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TableService_ListTables_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TableServiceServer).ListTables(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _TableService_Play_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(TableServiceServer).Play(&tableServicePlayServer{stream})
}

type TableService_PlayServer interface {
	Send(*structpb.Struct) error
	Recv() (*structpb.Struct, error)
	grpc.ServerStream
}

type tableServicePlayServer struct {
	grpc.ServerStream
}

func (x *tableServicePlayServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func (x *tableServicePlayServer) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// TableService_ServiceDesc is the grpc.ServiceDesc for TableService.
var TableService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "pokertable.TableService",
	HandlerType: (*TableServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListTables",
			Handler:    _TableService_ListTables_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Play",
			Handler:       _TableService_Play_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pokertable.proto",
}
