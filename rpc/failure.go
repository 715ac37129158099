package rpc

import (
	"fmt"

	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/serde"
)

// Code is an application failure code of the node.
type Code uint16

const (
	// CodeUnknown is a failure without a specific code.
	CodeUnknown Code = iota
	// CodeEncoding is the failure of a request that cannot be decoded.
	CodeEncoding
	// CodeLaunch is the failure of a service of the node to start.
	CodeLaunch
	// CodeStore is the failure of the stash.
	CodeStore
	// CodeValidation is the failure of a malformed consignment.
	CodeValidation
	// CodeResolver is the failure of the transaction resolver.
	CodeResolver
	// CodeNotFound is the failure of a query of an unknown contract.
	CodeNotFound
	// CodeHandshake is the failure of an incompatible client.
	CodeHandshake
	// CodeUnsupported is the failure of a request not supported by the node.
	CodeUnsupported
)

var codeNames = [...]string{
	"unknown",
	"encoding",
	"launch",
	"store",
	"validation",
	"resolver",
	"not found",
	"handshake",
	"unsupported",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}

	return fmt.Sprintf("code(%d)", uint16(c))
}

// FailureCode is the code of a failure on the bus. The low range is reserved
// for the protocol, the application codes are placed after it.
type FailureCode uint16

const (
	// FailureShutdown means the node is shutting down.
	FailureShutdown FailureCode = iota
	// FailurePresentation means a message could not be decoded.
	FailurePresentation
	// FailureTransport means the transport failed.
	FailureTransport
	// FailureUnexpected means the message was not expected.
	FailureUnexpected
)

const otherBase = 0x100

// Other returns the failure code of the application code.
func Other(code Code) FailureCode {
	return FailureCode(otherBase + uint16(code))
}

// App returns the application code if the failure code is not reserved by
// the protocol.
func (c FailureCode) App() (Code, bool) {
	if c < otherBase {
		return 0, false
	}

	return Code(c - otherBase), true
}

// String implements fmt.Stringer.
func (c FailureCode) String() string {
	switch c {
	case FailureShutdown:
		return "shutdown"
	case FailurePresentation:
		return "presentation"
	case FailureTransport:
		return "transport"
	case FailureUnexpected:
		return "unexpected"
	}

	code, ok := c.App()
	if !ok {
		return fmt.Sprintf("reserved(%d)", uint16(c))
	}

	return code.String()
}

// Failure is the terminal message of a request that failed. It is also an
// error so that a client can return it as is.
//
// - implements rpc.Message
// - implements error
type Failure struct {
	_ struct{} `cbor:",toarray"`

	Code FailureCode
	Info string
}

// Type implements rpc.Message.
func (Failure) Type() MsgType {
	return MsgFailure
}

// Serialize implements serde.Message.
func (m Failure) Serialize(ctx serde.Context) ([]byte, error) {
	return serialize(ctx, m)
}

// Error implements error.
func (m Failure) Error() string {
	return fmt.Sprintf("%s (error code %v)", m.Info, m.Code)
}

// String implements fmt.Stringer.
func (m Failure) String() string {
	return fmt.Sprintf("failure(%s)", m.Error())
}

// Success returns the terminal message of a request that succeeded.
func Success() SuccessMsg {
	return SuccessMsg{}
}

// SuccessWith returns the terminal message of a request that succeeded with
// the detail text.
func SuccessWith(details string) SuccessMsg {
	return SuccessMsg{Details: DetailsWith(details)}
}

// NewFailure returns the terminal message of a request that failed with the
// application code.
func NewFailure(code Code, format string, args ...interface{}) Failure {
	return Failure{
		Code: Other(code),
		Info: fmt.Sprintf(format, args...),
	}
}

// NewProgress returns the notification of the progress of a request.
func NewProgress(text string) Progress {
	return Progress{Text: text}
}

// FromPresentation returns the failure of a message that could not be decoded.
func FromPresentation(err error) Failure {
	return Failure{
		Code: FailurePresentation,
		Info: err.Error(),
	}
}

// Unexpected returns the failure of a message that the node does not expect.
func Unexpected(msg Message) Failure {
	return Failure{
		Code: FailureUnexpected,
		Info: fmt.Sprintf("unexpected message %v", msg),
	}
}

// FailureFromService returns the failure of the service error.
func FailureFromService(err fault.ServiceError) Failure {
	return Failure{
		Code: Other(serviceCode(err.Domain)),
		Info: err.Error(),
	}
}

func serviceCode(domain fault.Domain) Code {
	switch domain.Kind {
	case fault.DomainStorage, fault.DomainIndex, fault.DomainCache:
		return CodeStore
	case fault.DomainSchema:
		return CodeValidation
	case fault.DomainBitcoin:
		return CodeResolver
	case fault.DomainP2PWire:
		return CodeEncoding
	case fault.DomainAPI:
		if domain.API != nil && (domain.API.Kind == fault.UnknownCommand ||
			domain.API.Kind == fault.UnimplementedCommand) {
			return CodeUnsupported
		}

		return CodeEncoding
	case fault.DomainBifrost, fault.DomainBPNode, fault.DomainLNPNode, fault.DomainLightning:
		return CodeUnsupported
	default:
		return CodeUnknown
	}
}
