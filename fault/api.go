package fault

import "fmt"

// APIErrorKind is the kind of misuse of the API.
type APIErrorKind uint8

const (
	// MalformedRequest means the request could not be understood.
	MalformedRequest APIErrorKind = iota
	// UnknownCommand means the command does not exist.
	UnknownCommand
	// UnimplementedCommand means the command exists but is not supported by
	// the node.
	UnimplementedCommand
	// MissedArgument means an argument required by the request is missing.
	MissedArgument
	// UnknownArgument means the request has an argument that does not exist.
	UnknownArgument
	// MalformedArgument means an argument has an invalid value.
	MalformedArgument
)

// APIError is the error of a malformed, unknown or incomplete request. It is
// always specific to the request and never escalates to the whole service.
//
// - implements error
type APIError struct {
	Kind     APIErrorKind
	Request  string
	Command  string
	Argument string
}

// NewMalformedRequest returns an error for a request that is not understood.
func NewMalformedRequest(request string) APIError {
	return APIError{Kind: MalformedRequest, Request: request}
}

// NewUnknownCommand returns an error for a command that does not exist.
func NewUnknownCommand(command string) APIError {
	return APIError{Kind: UnknownCommand, Command: command}
}

// NewUnimplementedCommand returns an error for a command that is not
// supported.
func NewUnimplementedCommand() APIError {
	return APIError{Kind: UnimplementedCommand}
}

// NewMissedArgument returns an error for a missing argument of the request.
func NewMissedArgument(request, argument string) APIError {
	return APIError{Kind: MissedArgument, Request: request, Argument: argument}
}

// NewUnknownArgument returns an error for an unknown argument of the request.
func NewUnknownArgument(request, argument string) APIError {
	return APIError{Kind: UnknownArgument, Request: request, Argument: argument}
}

// NewMalformedArgument returns an error for an invalid argument of the
// request.
func NewMalformedArgument(request, argument string) APIError {
	return APIError{Kind: MalformedArgument, Request: request, Argument: argument}
}

// Name returns the name of the kind of error.
func (e APIError) Name() string {
	switch e.Kind {
	case MalformedRequest:
		return "MalformedRequest"
	case UnknownCommand:
		return "UnknownCommand"
	case UnimplementedCommand:
		return "UnimplementedCommand"
	case MissedArgument:
		return "MissedArgument"
	case UnknownArgument:
		return "UnknownArgument"
	case MalformedArgument:
		return "MalformedArgument"
	default:
		return "Unknown"
	}
}

// Error implements error.
func (e APIError) Error() string {
	switch e.Kind {
	case MalformedRequest:
		return fmt.Sprintf("MalformedRequest { request: %q }", e.Request)
	case UnknownCommand:
		return fmt.Sprintf("UnknownCommand { command: %q }", e.Command)
	case UnimplementedCommand:
		return "UnimplementedCommand"
	default:
		return fmt.Sprintf("%s { request: %q, argument: %q }", e.Name(), e.Request, e.Argument)
	}
}
