// Package bus defines the transport of the frames exchanged between the node
// and its peers, and a client that speaks the request protocol over it.
//
// A transport only moves opaque frames in order. The content of a frame is an
// envelope of the rpc package encoded with a serde context.
package bus

import (
	"context"

	"golang.org/x/xerrors"
)

// ErrClosed is the error returned when an operation is performed on a closed
// connection or listener.
var ErrClosed = xerrors.New("bus closed")

// Conn is a bidirectional stream of frames between two peers. Frames are
// delivered in the order they are sent.
type Conn interface {
	// Send writes a frame to the peer.
	Send(frame []byte) error

	// Recv blocks until a frame is received. It returns io.EOF when the peer
	// closed the connection gracefully.
	Recv() ([]byte, error)

	// RemoteAddr returns a textual representation of the peer.
	RemoteAddr() string

	// Close terminates the connection.
	Close() error
}

// Listener accepts the incoming connections of the peers.
type Listener interface {
	// Accept blocks until a new connection is available. It returns
	// ErrClosed after the listener is closed.
	Accept() (Conn, error)

	// Addr returns the address the listener is bound to.
	Addr() string

	// Close stops the listener. Depending on the transport, the accepted
	// connections are either left open or terminated.
	Close() error
}

// Dialer opens connections to a listener.
type Dialer interface {
	// Dial returns a connection to the address. The context bounds the time
	// spent to establish the connection.
	Dial(ctx context.Context, addr string) (Conn, error)
}
