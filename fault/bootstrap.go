package fault

import "fmt"

// BootstrapKind is the kind of fault that prevents the node from starting.
type BootstrapKind uint8

const (
	// TorNotYetSupported means a Tor address has been configured.
	TorNotYetSupported BootstrapKind = iota
	// BootstrapIO is an input/output failure.
	BootstrapIO
	// ArgParse is an invalid argument or configuration value.
	ArgParse
	// SocketSetup is a failure to bind or connect a transport socket.
	SocketSetup
	// Multithread is a failure to join a worker.
	Multithread
	// MonitorSocket is a failure of the monitoring endpoint.
	MonitorSocket
	// BootstrapOther is any other failure.
	BootstrapOther
)

var bootstrapNames = [...]string{
	"TorNotYetSupported",
	"IoError",
	"ArgParseError",
	"SocketError",
	"MultithreadError",
	"MonitorSocketError",
	"Other",
}

// String implements fmt.Stringer.
func (k BootstrapKind) String() string {
	if int(k) < len(bootstrapNames) {
		return bootstrapNames[k]
	}

	return fmt.Sprintf("BootstrapKind(%d)", uint8(k))
}

// BootstrapError is a fault that happens while the node is starting. It is
// fatal to the start of the process.
//
// - implements error
type BootstrapError struct {
	Kind BootstrapKind
	Msg  string
	Err  error
}

// NewBootstrapError returns a bootstrap error of the kind wrapping the error.
func NewBootstrapError(kind BootstrapKind, err error) BootstrapError {
	return BootstrapError{Kind: kind, Err: err}
}

// ArgParseError returns the bootstrap error of an invalid argument.
func ArgParseError(msg string) BootstrapError {
	return BootstrapError{Kind: ArgParse, Msg: msg}
}

// Error implements error.
func (e BootstrapError) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("%v(%q)", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%v(%v)", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the wrapped error if any.
func (e BootstrapError) Unwrap() error {
	return e.Err
}
