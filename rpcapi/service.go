// Package rpcapi is the binary RPC frontend described in §6: a single
// Execute(Query) -> Reply method, exposed over gRPC's framing with a
// hand-wired grpc.ServiceDesc and a JSON encoding.Codec rather than a
// protoc-generated stub (see DESIGN.md). It carries no business logic
// beyond translating Query/Reply across the wire.
package rpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/zknill/poorly/engine"
	"github.com/zknill/poorly/wire"
)

const serviceName = "poorly.Execute"

// ExecuteServer is implemented by anything that can serve Execute calls.
type ExecuteServer interface {
	Execute(ctx context.Context, in *wire.Query) (*wire.Reply, error)
}

// ExecuteClient is implemented by a gRPC client stub for the service.
type ExecuteClient interface {
	Execute(ctx context.Context, in *wire.Query, opts ...grpc.CallOption) (*wire.Reply, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ExecuteServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/service.go",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wire.Query)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExecuteServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Execute"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExecuteServer).Execute(ctx, req.(*wire.Query))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterExecuteServer registers srv against s, the same way a
// protoc-generated RegisterXServer function would.
func RegisterExecuteServer(s grpc.ServiceRegistrar, srv ExecuteServer) {
	s.RegisterService(&serviceDesc, srv)
}

type executeClient struct {
	cc grpc.ClientConnInterface
}

// NewExecuteClient returns a client stub for the Execute service over cc.
func NewExecuteClient(cc grpc.ClientConnInterface) ExecuteClient {
	return &executeClient{cc: cc}
}

func (c *executeClient) Execute(ctx context.Context, in *wire.Query, opts ...grpc.CallOption) (*wire.Reply, error) {
	out := new(wire.Reply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Execute", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Server adapts an *engine.Engine to ExecuteServer.
type Server struct {
	Engine *engine.Engine
}

// Execute forwards to the engine's dispatcher.
func (s *Server) Execute(ctx context.Context, in *wire.Query) (*wire.Reply, error) {
	reply, err := s.Engine.Execute(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
