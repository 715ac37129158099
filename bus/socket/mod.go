// Package socket implements a bus transport over stream sockets. It supports
// UNIX sockets, which let the filesystem manage the permissions, and TCP.
//
// Each frame is written as its length in a big-endian 32-bit integer followed
// by the content.
package socket

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"go.dedis.ch/rgbd/bus"
	"golang.org/x/xerrors"
)

// MaxFrameSize is the largest frame accepted by a connection.
const MaxFrameSize = 1 << 24

const headerSize = 4

// Listener is a socket listener.
//
// - implements bus.Listener
type Listener struct {
	socket  net.Listener
	closing chan struct{}
	once    sync.Once
}

// Listen binds the socket to the address. The network is either "unix" or
// "tcp".
func Listen(network, addr string) (*Listener, error) {
	return listen(network, addr, net.Listen)
}

func listen(network, addr string,
	listenFn func(network, addr string) (net.Listener, error)) (*Listener, error) {

	socket, err := listenFn(network, addr)
	if err != nil {
		return nil, xerrors.Errorf("couldn't bind socket: %v", err)
	}

	l := &Listener{
		socket:  socket,
		closing: make(chan struct{}),
	}

	return l, nil
}

// Accept implements bus.Listener.
func (l *Listener) Accept() (bus.Conn, error) {
	fd, err := l.socket.Accept()
	if err != nil {
		select {
		case <-l.closing:
			return nil, bus.ErrClosed
		default:
			return nil, xerrors.Errorf("couldn't accept connection: %v", err)
		}
	}

	return NewConn(fd), nil
}

// Addr implements bus.Listener.
func (l *Listener) Addr() string {
	return l.socket.Addr().String()
}

// Close implements bus.Listener. The UNIX socket file is removed.
func (l *Listener) Close() error {
	var err error

	l.once.Do(func() {
		close(l.closing)
		err = l.socket.Close()
	})

	if err != nil {
		return xerrors.Errorf("couldn't close socket: %v", err)
	}

	return nil
}

// Dialer opens socket connections.
//
// - implements bus.Dialer
type Dialer struct {
	network string
	dialer  net.Dialer
}

// NewDialer returns a dialer for the network, either "unix" or "tcp".
func NewDialer(network string) Dialer {
	return Dialer{network: network}
}

// Dial implements bus.Dialer.
func (d Dialer) Dial(ctx context.Context, addr string) (bus.Conn, error) {
	fd, err := d.dialer.DialContext(ctx, d.network, addr)
	if err != nil {
		return nil, xerrors.Errorf("couldn't open connection: %v", err)
	}

	return NewConn(fd), nil
}

// Conn is a connection over a socket that reads and writes length-prefixed
// frames.
//
// - implements bus.Conn
type Conn struct {
	sync.Mutex

	socket net.Conn
}

// NewConn returns a bus connection over the socket.
func NewConn(socket net.Conn) *Conn {
	return &Conn{socket: socket}
}

// Send implements bus.Conn. It writes the header and the frame in a single
// write.
func (c *Conn) Send(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return xerrors.Errorf("frame too large: %d > %d", len(frame), MaxFrameSize)
	}

	data := make([]byte, headerSize+len(frame))
	binary.BigEndian.PutUint32(data, uint32(len(frame)))
	copy(data[headerSize:], frame)

	c.Lock()
	defer c.Unlock()

	_, err := c.socket.Write(data)
	if err != nil {
		return xerrors.Errorf("couldn't write frame: %v", err)
	}

	return nil
}

// Recv implements bus.Conn.
func (c *Conn) Recv() ([]byte, error) {
	header := make([]byte, headerSize)

	_, err := io.ReadFull(c.socket, header)
	if err == io.EOF {
		return nil, io.EOF
	}

	if err != nil {
		return nil, xerrors.Errorf("couldn't read header: %v", err)
	}

	size := binary.BigEndian.Uint32(header)
	if size > MaxFrameSize {
		return nil, xerrors.Errorf("frame too large: %d > %d", size, MaxFrameSize)
	}

	frame := make([]byte, size)

	_, err = io.ReadFull(c.socket, frame)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read frame: %v", err)
	}

	return frame, nil
}

// RemoteAddr implements bus.Conn. UNIX sockets have no address for the
// dialing peer, in which case the local address is returned.
func (c *Conn) RemoteAddr() string {
	addr := c.socket.RemoteAddr()
	if addr == nil || addr.String() == "" {
		return c.socket.LocalAddr().String()
	}

	return addr.String()
}

// Close implements bus.Conn.
func (c *Conn) Close() error {
	return c.socket.Close()
}
