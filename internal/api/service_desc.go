package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "huddle.v1.Session"

const watchMethod = "/" + ServiceName + "/Watch"

// SessionServer is the server API of the control service.
type SessionServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*StatusResponse, error)
	ListRoster(context.Context, *ListRosterRequest) (*RosterResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*MessagesResponse, error)
	GetCounter(context.Context, *GetCounterRequest) (*CounterResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	DeleteMessage(context.Context, *DeleteMessageRequest) (*Empty, error)
	UpdateCounter(context.Context, *UpdateCounterRequest) (*CounterResponse, error)
	MarkTyping(context.Context, *MarkTypingRequest) (*Empty, error)
	Watch(*WatchRequest, grpc.ServerStreamingServer[WatchEvent]) error
}

// SessionServiceDesc describes the control service for grpc.Server.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", SessionServer.GetStatus),
		unary("ListRoster", SessionServer.ListRoster),
		unary("ListMessages", SessionServer.ListMessages),
		unary("GetCounter", SessionServer.GetCounter),
		unary("SendMessage", SessionServer.SendMessage),
		unary("DeleteMessage", SessionServer.DeleteMessage),
		unary("UpdateCounter", SessionServer.UpdateCounter),
		unary("MarkTyping", SessionServer.MarkTyping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "huddle/v1/session",
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(SessionServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SessionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SessionServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SessionServer).Watch(in, &grpc.GenericServerStream[WatchRequest, WatchEvent]{ServerStream: stream})
}

// SessionClient is the client API of the control service. Every call uses
// the JSON codec.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionClient) GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[GetStatusRequest, StatusResponse](ctx, c.cc, "GetStatus", in, opts)
}

func (c *SessionClient) ListRoster(ctx context.Context, in *ListRosterRequest, opts ...grpc.CallOption) (*RosterResponse, error) {
	return invoke[ListRosterRequest, RosterResponse](ctx, c.cc, "ListRoster", in, opts)
}

func (c *SessionClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[ListMessagesRequest, MessagesResponse](ctx, c.cc, "ListMessages", in, opts)
}

func (c *SessionClient) GetCounter(ctx context.Context, in *GetCounterRequest, opts ...grpc.CallOption) (*CounterResponse, error) {
	return invoke[GetCounterRequest, CounterResponse](ctx, c.cc, "GetCounter", in, opts)
}

func (c *SessionClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageRequest, SendMessageResponse](ctx, c.cc, "SendMessage", in, opts)
}

func (c *SessionClient) DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[DeleteMessageRequest, Empty](ctx, c.cc, "DeleteMessage", in, opts)
}

func (c *SessionClient) UpdateCounter(ctx context.Context, in *UpdateCounterRequest, opts ...grpc.CallOption) (*CounterResponse, error) {
	return invoke[UpdateCounterRequest, CounterResponse](ctx, c.cc, "UpdateCounter", in, opts)
}

func (c *SessionClient) MarkTyping(ctx context.Context, in *MarkTypingRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[MarkTypingRequest, Empty](ctx, c.cc, "MarkTyping", in, opts)
}

func (c *SessionClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[WatchEvent], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &SessionServiceDesc.Streams[0], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, WatchEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
