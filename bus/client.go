package bus

import (
	"context"
	"io"

	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/serde"
	"golang.org/x/xerrors"
)

// Client sends requests to a node over a connection and collects the
// replies. A client must not be used concurrently as the protocol only allows
// one pending request per connection.
type Client struct {
	conn    Conn
	context serde.Context
	factory rpc.BusFactory
}

// NewClient returns a client that uses the connection with the given serde
// context.
func NewClient(conn Conn, ctx serde.Context) *Client {
	return &Client{
		conn:    conn,
		context: ctx,
		factory: rpc.NewBusFactory(),
	}
}

// Dial opens a connection with the dialer and returns its client.
func Dial(ctx context.Context, dialer Dialer, addr string, sctx serde.Context) (*Client, error) {
	conn, err := dialer.Dial(ctx, addr)
	if err != nil {
		return nil, xerrors.Errorf("couldn't dial: %w", fault.RequestSocketErr(addr, err))
	}

	return NewClient(conn, sctx), nil
}

// Request sends the request and waits for its terminal reply. Progress
// notifications are passed to the callback which can be nil.
func (c *Client) Request(ctx context.Context, req rpc.Message,
	progress func(rpc.Progress)) (rpc.Message, error) {

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	err := c.Send(req)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msg, err := c.Recv()
		if err != nil {
			return nil, err
		}

		notif, isProgress := msg.(rpc.Progress)
		if !isProgress {
			return msg, nil
		}

		if progress != nil {
			progress(notif)
		}
	}
}

// Send writes the message in a bus envelope.
func (c *Client) Send(msg rpc.Message) error {
	frame, err := rpc.NewBusMsg(msg).Serialize(c.context)
	if err != nil {
		return xerrors.Errorf("couldn't serialize request: %v", err)
	}

	err = c.conn.Send(frame)
	if err != nil {
		return xerrors.Errorf("couldn't send request: %v", err)
	}

	return nil
}

// Recv reads the next message of the node.
func (c *Client) Recv() (rpc.Message, error) {
	frame, err := c.conn.Recv()
	if err == io.EOF {
		return nil, xerrors.Errorf("connection closed by %s: %w", c.conn.RemoteAddr(), io.EOF)
	}

	if err != nil {
		return nil, xerrors.Errorf("couldn't receive reply: %v", err)
	}

	envelope, err := c.factory.BusMsgOf(c.context, frame)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode reply: %v", err)
	}

	return envelope.Msg, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
