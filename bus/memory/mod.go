// Package memory implements a bus transport using channels and a local
// manager to connect the peers.
//
// The peers must live in the same process, which makes the transport mostly
// useful to test the services without opening sockets.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.dedis.ch/rgbd/bus"
	"golang.org/x/xerrors"
)

const (
	queueSize = 64
	backlog   = 16
)

// Manager is an orchestrator that connects the dialers to the listeners
// registered under an address.
//
// - implements bus.Dialer
type Manager struct {
	sync.Mutex

	listeners map[string]*Listener
	counter   int
}

// NewManager creates a new empty manager.
func NewManager() *Manager {
	return &Manager{
		listeners: make(map[string]*Listener),
	}
}

// Listen registers a listener for the address.
func (m *Manager) Listen(addr string) (*Listener, error) {
	if addr == "" {
		return nil, xerrors.New("address must not be empty")
	}

	m.Lock()
	defer m.Unlock()

	if _, found := m.listeners[addr]; found {
		return nil, xerrors.Errorf("address '%s' already in use", addr)
	}

	l := &Listener{
		manager:  m,
		addr:     addr,
		incoming: make(chan *conn, backlog),
		closing:  make(chan struct{}),
	}

	m.listeners[addr] = l

	return l, nil
}

// Dial implements bus.Dialer. It returns a connection to the listener of the
// address.
func (m *Manager) Dial(ctx context.Context, addr string) (bus.Conn, error) {
	m.Lock()
	l, found := m.listeners[addr]
	m.counter++
	local := fmt.Sprintf("%s#%d", addr, m.counter)
	m.Unlock()

	if !found {
		return nil, xerrors.Errorf("unknown address '%s'", addr)
	}

	forward := newPipe()
	backward := newPipe()

	client := &conn{remote: addr, in: backward, out: forward}
	server := &conn{remote: local, in: forward, out: backward}

	select {
	case l.incoming <- server:
		return client, nil
	case <-l.closing:
		return nil, xerrors.Errorf("listener '%s' is closed", addr)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) remove(addr string) {
	m.Lock()
	delete(m.listeners, addr)
	m.Unlock()
}

// Listener is the listener of an address of the manager.
//
// - implements bus.Listener
type Listener struct {
	manager  *Manager
	addr     string
	incoming chan *conn
	closing  chan struct{}
	once     sync.Once
}

// Accept implements bus.Listener. It blocks until a peer dials the address or
// the listener is closed.
func (l *Listener) Accept() (bus.Conn, error) {
	select {
	case c := <-l.incoming:
		return c, nil
	case <-l.closing:
		return nil, bus.ErrClosed
	}
}

// Addr implements bus.Listener.
func (l *Listener) Addr() string {
	return l.addr
}

// Close implements bus.Listener. It releases the address so that it can be
// used again.
func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.closing)
		l.manager.remove(l.addr)
	})

	return nil
}

// pipe is one direction of a connection.
type pipe struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func newPipe() *pipe {
	return &pipe{
		frames: make(chan []byte, queueSize),
		closed: make(chan struct{}),
	}
}

func (p *pipe) close() {
	p.once.Do(func() { close(p.closed) })
}

// conn is one end of a pair of pipes.
//
// - implements bus.Conn
type conn struct {
	remote string
	in     *pipe
	out    *pipe
}

// Send implements bus.Conn. The frame is copied so that the caller can reuse
// the buffer.
func (c *conn) Send(frame []byte) error {
	select {
	case <-c.out.closed:
		return bus.ErrClosed
	default:
	}

	buffer := make([]byte, len(frame))
	copy(buffer, frame)

	select {
	case c.out.frames <- buffer:
		return nil
	case <-c.out.closed:
		return bus.ErrClosed
	}
}

// Recv implements bus.Conn. The frames sent before the peer closed the
// connection are delivered before io.EOF.
func (c *conn) Recv() ([]byte, error) {
	select {
	case frame := <-c.in.frames:
		return frame, nil
	case <-c.in.closed:
		select {
		case frame := <-c.in.frames:
			return frame, nil
		default:
			return nil, io.EOF
		}
	}
}

// RemoteAddr implements bus.Conn.
func (c *conn) RemoteAddr() string {
	return c.remote
}

// Close implements bus.Conn. It closes both directions.
func (c *conn) Close() error {
	c.in.close()
	c.out.close()

	return nil
}
