// Package boundary defines the primitives to pass values of arbitrary types
// across an untyped boundary, like a foreign function interface, and to
// report the outcome of a fallible operation uniformly.
//
// A value is moved into a Handle that remembers the type tag of the value.
// The far side can only get the value back by asking for the same type,
// otherwise it gets a recoverable type mismatch error. Restoring a handle
// hands the ownership back to the caller and the handle is then marked as
// moved so that it cannot be restored a second time.
//
// A Result wraps either a typed success value or the text of an error. The
// text of an error is stored as a raw payload which is not type-checked, and
// must be read with RestoreRaw.
package boundary

import (
	"fmt"
	"sync/atomic"

	"go.dedis.ch/rgbd/internal/typetag"
	"golang.org/x/xerrors"
)

// ErrConsumed is returned when a handle is used after its value has been
// moved out by a successful restore.
var ErrConsumed = xerrors.New("handle already consumed")

// ErrNilHandle is returned when a nil handle is provided.
var ErrNilHandle = xerrors.New("handle is nil")

// TypeMismatchError is returned when a handle is restored with a type
// different from the one it has been created with.
type TypeMismatchError struct {
	Expected typetag.Tag
	Actual   typetag.Tag
}

// Error implements error.
func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %v, got %v", e.Expected, e.Actual)
}

// Handle is a boundary-owned container of a value whose type is erased. It
// must be created with Wrap or WrapRaw.
type Handle struct {
	tag   typetag.Tag
	value interface{}
	moved atomic.Bool
}

// Wrap moves the value into a new handle tagged with the type of the value.
func Wrap[T any](value T) *Handle {
	ptr := new(T)
	*ptr = value

	return &Handle{
		tag:   typetag.Of[T](),
		value: ptr,
	}
}

// WrapRaw creates an untyped handle of a text payload. It is reserved to
// error messages that the far side reads without a type check.
func WrapRaw(text string) *Handle {
	return &Handle{
		tag:   typetag.Raw,
		value: &text,
	}
}

// Tag returns the type tag of the handle.
func (h *Handle) Tag() typetag.Tag {
	return h.tag
}

// IsRaw returns true if the handle has been created with WrapRaw.
func (h *Handle) IsRaw() bool {
	return h.tag == typetag.Raw
}

// Moved returns true if the value has already been moved out of the handle.
func (h *Handle) Moved() bool {
	return h.moved.Load()
}

// Restore moves the value out of the handle if the type parameter matches the
// type of the value. At most one restore succeeds for a given handle.
func Restore[T any](h *Handle) (*T, error) {
	ptr, err := check[T](h)
	if err != nil {
		return nil, err
	}

	if !h.moved.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}

	return ptr, nil
}

// Borrow returns the value of the handle if the type parameter matches,
// without moving it out. It is meant for long-lived values, like the runtime,
// that the boundary keeps for the whole session. The handle does not
// synchronize the accesses to the value.
func Borrow[T any](h *Handle) (*T, error) {
	ptr, err := check[T](h)
	if err != nil {
		return nil, err
	}

	if h.moved.Load() {
		return nil, ErrConsumed
	}

	return ptr, nil
}

// RestoreRaw moves the text out of a raw handle. It fails if the handle is
// typed.
func RestoreRaw(h *Handle) (string, error) {
	if h == nil {
		return "", ErrNilHandle
	}

	if h.tag != typetag.Raw {
		return "", xerrors.Errorf("handle is typed with %v", h.tag)
	}

	ptr := h.value.(*string)

	if !h.moved.CompareAndSwap(false, true) {
		return "", ErrConsumed
	}

	return *ptr, nil
}

func check[T any](h *Handle) (*T, error) {
	if h == nil {
		return nil, ErrNilHandle
	}

	expected := typetag.Of[T]()
	if h.tag != expected {
		return nil, TypeMismatchError{Expected: expected, Actual: h.tag}
	}

	ptr, ok := h.value.(*T)
	if !ok {
		return nil, xerrors.Errorf("invalid value '%T'", h.value)
	}

	return ptr, nil
}
