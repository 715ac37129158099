// Package grpcbus implements a bus transport over gRPC. A connection is a
// bidirectional stream of a single service method, declared without any
// generated code, where every gRPC message is one frame.
package grpcbus

import (
	"context"
	"io"
	"net"
	"sync"

	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/bus"
	"golang.org/x/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	serviceName = "rgbd.Bus"
	streamName  = "Stream"
	fullMethod  = "/" + serviceName + "/" + streamName
)

// streamServer is the handler of the service.
type streamServer interface {
	handle(stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*streamServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamName,
			Handler:       streamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "rgbd/bus.proto",
}

func streamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(streamServer).handle(stream)
}

// Listener is a gRPC server where each stream opened by a client is accepted
// as a connection.
//
// - implements bus.Listener
type Listener struct {
	server   *grpc.Server
	addr     string
	incoming chan *serverConn
	closing  chan struct{}
	once     sync.Once
}

// Listen binds a TCP socket to the address and serves the bus on it.
func Listen(addr string, opts ...grpc.ServerOption) (*Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("couldn't bind socket: %v", err)
	}

	return Serve(lis, opts...), nil
}

// Serve starts a gRPC server on the network listener and returns the bus
// listener of its streams.
func Serve(lis net.Listener, opts ...grpc.ServerOption) *Listener {
	options := append([]grpc.ServerOption{}, opts...)
	options = append(options, grpc.ForceServerCodec(frameCodec{}))

	l := &Listener{
		server:   grpc.NewServer(options...),
		addr:     lis.Addr().String(),
		incoming: make(chan *serverConn),
		closing:  make(chan struct{}),
	}

	l.server.RegisterService(&serviceDesc, l)

	go func() {
		err := l.server.Serve(lis)
		if err != nil {
			rgbd.Logger.Err(err).Str("addr", l.addr).Msg("gRPC bus stopped")
		}
	}()

	return l
}

// Accept implements bus.Listener.
func (l *Listener) Accept() (bus.Conn, error) {
	select {
	case conn := <-l.incoming:
		return conn, nil
	case <-l.closing:
		return nil, bus.ErrClosed
	}
}

// Addr implements bus.Listener.
func (l *Listener) Addr() string {
	return l.addr
}

// Close implements bus.Listener. It stops the server which terminates the
// streams in progress.
func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.closing)
		l.server.Stop()
	})

	return nil
}

func (l *Listener) handle(stream grpc.ServerStream) error {
	conn := &serverConn{
		stream: stream,
		done:   make(chan struct{}),
	}

	select {
	case l.incoming <- conn:
	case <-l.closing:
		return status.Error(codes.Unavailable, bus.ErrClosed.Error())
	case <-stream.Context().Done():
		return stream.Context().Err()
	}

	select {
	case <-conn.done:
	case <-stream.Context().Done():
	}

	return nil
}

// serverConn is the server end of a stream. The stream ends when the
// connection is closed.
//
// - implements bus.Conn
type serverConn struct {
	sync.Mutex

	stream grpc.ServerStream
	done   chan struct{}
	once   sync.Once
}

// Send implements bus.Conn.
func (c *serverConn) Send(data []byte) error {
	c.Lock()
	defer c.Unlock()

	select {
	case <-c.done:
		return bus.ErrClosed
	default:
	}

	err := c.stream.SendMsg(&frame{data: data})
	if err != nil {
		return xerrors.Errorf("couldn't send frame: %v", err)
	}

	return nil
}

// Recv implements bus.Conn.
func (c *serverConn) Recv() ([]byte, error) {
	var f frame

	err := c.stream.RecvMsg(&f)
	if err == io.EOF {
		return nil, io.EOF
	}

	if err != nil {
		return nil, xerrors.Errorf("couldn't receive frame: %v", err)
	}

	return f.data, nil
}

// RemoteAddr implements bus.Conn.
func (c *serverConn) RemoteAddr() string {
	p, ok := peer.FromContext(c.stream.Context())
	if !ok || p.Addr == nil {
		return "unknown"
	}

	return p.Addr.String()
}

// Close implements bus.Conn.
func (c *serverConn) Close() error {
	c.once.Do(func() { close(c.done) })

	return nil
}

// Dialer opens streams to a gRPC bus. Each connection has its own client
// connection.
//
// - implements bus.Dialer
type Dialer struct {
	opts []grpc.DialOption
}

// NewDialer returns a dialer that uses the options to create the client
// connections. Transport credentials must be provided.
func NewDialer(opts ...grpc.DialOption) Dialer {
	return Dialer{opts: opts}
}

// Dial implements bus.Dialer.
func (d Dialer) Dial(ctx context.Context, addr string) (bus.Conn, error) {
	options := append([]grpc.DialOption{}, d.opts...)
	options = append(options, grpc.WithDefaultCallOptions(grpc.ForceCodec(frameCodec{})))

	cc, err := grpc.DialContext(ctx, addr, options...)
	if err != nil {
		return nil, xerrors.Errorf("couldn't dial: %v", err)
	}

	sctx, cancel := context.WithCancel(context.Background())

	stream, err := cc.NewStream(sctx, &serviceDesc.Streams[0], fullMethod)
	if err != nil {
		cancel()
		cc.Close()

		return nil, xerrors.Errorf("couldn't open stream: %v", err)
	}

	conn := &clientConn{
		cc:     cc,
		stream: stream,
		cancel: cancel,
		addr:   addr,
	}

	return conn, nil
}

// clientConn is the client end of a stream.
//
// - implements bus.Conn
type clientConn struct {
	sync.Mutex

	cc     *grpc.ClientConn
	stream grpc.ClientStream
	cancel context.CancelFunc
	addr   string
}

// Send implements bus.Conn.
func (c *clientConn) Send(data []byte) error {
	c.Lock()
	defer c.Unlock()

	err := c.stream.SendMsg(&frame{data: data})
	if err != nil {
		return xerrors.Errorf("couldn't send frame: %v", err)
	}

	return nil
}

// Recv implements bus.Conn.
func (c *clientConn) Recv() ([]byte, error) {
	var f frame

	err := c.stream.RecvMsg(&f)
	if err == io.EOF {
		return nil, io.EOF
	}

	if err != nil {
		return nil, xerrors.Errorf("couldn't receive frame: %v", err)
	}

	return f.data, nil
}

// RemoteAddr implements bus.Conn.
func (c *clientConn) RemoteAddr() string {
	return c.addr
}

// Close implements bus.Conn. It ends the stream and releases the client
// connection.
func (c *clientConn) Close() error {
	c.Lock()
	c.stream.CloseSend()
	c.Unlock()

	c.cancel()

	err := c.cc.Close()
	if err != nil {
		return xerrors.Errorf("couldn't close client: %v", err)
	}

	return nil
}
