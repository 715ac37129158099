package boundary

import (
	"go.dedis.ch/rgbd/fault"
	"golang.org/x/xerrors"
)

// Status is the discriminant of a result.
type Status uint8

const (
	// StatusOk is the status of a result holding a success value.
	StatusOk Status = iota

	// StatusErr is the status of a result holding an error message.
	StatusErr
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusErr:
		return "err"
	default:
		return "unknown"
	}
}

// Result is the envelope of the outcome of a fallible operation. The payload
// is typed with the success value when the status is ok, or it is a raw text
// payload with the message of the error.
type Result struct {
	Status  Status
	Payload *Handle
}

// FromResult folds the outcome of an operation into a result. Only the text
// of the error crosses the boundary.
func FromResult[T any](value T, err error) Result {
	if err != nil {
		return Err(err)
	}

	return Ok(value)
}

// Ok returns a successful result wrapping the value.
func Ok[T any](value T) Result {
	return Result{
		Status:  StatusOk,
		Payload: Wrap(value),
	}
}

// Err returns a failed result holding the message of the error.
func Err(err error) Result {
	return Result{
		Status:  StatusErr,
		Payload: WrapRaw(string(fault.Interop(err))),
	}
}

// IsOk returns true if the result holds a success value.
func (r Result) IsOk() bool {
	return r.Status == StatusOk
}

// Message moves the error message out of a failed result.
func (r Result) Message() (string, error) {
	if r.Status != StatusErr {
		return "", xerrors.New("result is not an error")
	}

	return RestoreRaw(r.Payload)
}

// Value moves the success value out of the result. If the result is an error,
// the message is returned as an error.
func Value[T any](r Result) (*T, error) {
	if r.Status != StatusOk {
		msg, err := r.Message()
		if err != nil {
			return nil, xerrors.Errorf("couldn't read error: %v", err)
		}

		return nil, xerrors.New(msg)
	}

	return Restore[T](r.Payload)
}
