package fault

import "fmt"

// SocketType is the role of a transport socket.
type SocketType uint8

const (
	// SocketRequest is the socket sending requests.
	SocketRequest SocketType = iota
	// SocketReply is the socket answering requests.
	SocketReply
	// SocketPublish is the socket publishing notifications.
	SocketPublish
	// SocketSubscribe is the socket receiving notifications.
	SocketSubscribe
)

// String implements fmt.Stringer.
func (t SocketType) String() string {
	switch t {
	case SocketRequest:
		return "Request"
	case SocketReply:
		return "Reply"
	case SocketPublish:
		return "Publish"
	case SocketSubscribe:
		return "Subscribe"
	default:
		return fmt.Sprintf("SocketType(%d)", uint8(t))
	}
}

// RuntimeError is the error of a transport socket, alongside its role and
// its address.
//
// - implements error
type RuntimeError struct {
	Socket SocketType
	Addr   string
	Err    error
}

// RequestSocketErr returns a runtime error of a request socket.
func RequestSocketErr(addr string, err error) RuntimeError {
	return RuntimeError{Socket: SocketRequest, Addr: addr, Err: err}
}

// ReplySocketErr returns a runtime error of a reply socket.
func ReplySocketErr(addr string, err error) RuntimeError {
	return RuntimeError{Socket: SocketReply, Addr: addr, Err: err}
}

// PublishSocketErr returns a runtime error of a publish socket.
func PublishSocketErr(addr string, err error) RuntimeError {
	return RuntimeError{Socket: SocketPublish, Addr: addr, Err: err}
}

// SubscribeSocketErr returns a runtime error of a subscribe socket.
func SubscribeSocketErr(addr string, err error) RuntimeError {
	return RuntimeError{Socket: SocketSubscribe, Addr: addr, Err: err}
}

// Error implements error.
func (e RuntimeError) Error() string {
	return fmt.Sprintf("socket %v at %q: %v", e.Socket, e.Addr, e.Err)
}

// Unwrap returns the error of the socket.
func (e RuntimeError) Unwrap() error {
	return e.Err
}
