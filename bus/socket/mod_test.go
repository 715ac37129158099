package socket

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/rgbd/bus"
	"go.dedis.ch/rgbd/internal/testing/fake"
)

func TestListener_Unix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgbd.sock")

	testExchange(t, "unix", path)
}

func TestListener_TCP(t *testing.T) {
	testExchange(t, "tcp", "127.0.0.1:0")
}

func TestListener_BadBind(t *testing.T) {
	_, err := listen("unix", "", badListenFn)
	require.EqualError(t, err, fake.Err("couldn't bind socket"))
}

func TestListener_Close(t *testing.T) {
	l, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err = l.Accept()
	require.Equal(t, bus.ErrClosed, err)
}

func TestDialer_Dial(t *testing.T) {
	dialer := NewDialer("unix")

	_, err := dialer.Dial(context.Background(), filepath.Join(t.TempDir(), "none.sock"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't open connection: ")
}

func TestConn_Recv(t *testing.T) {
	local, remote := net.Pipe()

	conn := NewConn(local)

	go func() {
		header := make([]byte, headerSize)
		binary.BigEndian.PutUint32(header, MaxFrameSize+1)
		remote.Write(header)
	}()

	_, err := conn.Recv()
	require.EqualError(t, err, "frame too large: 16777217 > 16777216")

	go func() {
		header := make([]byte, headerSize)
		binary.BigEndian.PutUint32(header, 10)
		remote.Write(header)
		remote.Write([]byte("abc"))
		remote.Close()
	}()

	_, err = conn.Recv()
	require.EqualError(t, err, "couldn't read frame: unexpected EOF")

	_, err = conn.Recv()
	require.Equal(t, io.EOF, err)
}

func TestConn_Send(t *testing.T) {
	local, remote := net.Pipe()

	conn := NewConn(local)

	err := conn.Send(make([]byte, MaxFrameSize+1))
	require.EqualError(t, err, "frame too large: 16777217 > 16777216")

	remote.Close()

	err = conn.Send([]byte("abc"))
	require.EqualError(t, err, "couldn't write frame: io: read/write on closed pipe")
}

// -----------------------------------------------------------------------------
// Utility functions

func testExchange(t *testing.T, network, addr string) {
	l, err := Listen(network, addr)
	require.NoError(t, err)

	defer l.Close()

	accepted := make(chan bus.Conn, 1)

	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := NewDialer(network).Dial(context.Background(), l.Addr())
	require.NoError(t, err)

	defer client.Close()

	server := <-accepted
	defer server.Close()

	require.NotEmpty(t, server.RemoteAddr())

	frames := [][]byte{[]byte("first"), {}, []byte("third")}
	for _, frame := range frames {
		require.NoError(t, client.Send(frame))
	}

	for _, frame := range frames {
		data, err := server.Recv()
		require.NoError(t, err)
		require.Equal(t, frame, data)
	}

	require.NoError(t, server.Send([]byte("reply")))

	data, err := client.Recv()
	require.NoError(t, err)
	require.Equal(t, []byte("reply"), data)

	client.Close()

	_, err = server.Recv()
	require.Equal(t, io.EOF, err)
}

func badListenFn(network, addr string) (net.Listener, error) {
	return nil, fake.GetError()
}
