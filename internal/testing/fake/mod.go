// Package fake provides fake implementations of the serde primitives and the
// helpers to check the errors and the logs in the unit tests.
package fake

import (
	"encoding/json"

	"go.dedis.ch/rgbd/serde"
	"golang.org/x/xerrors"
)

const fakeErrMsg = "fake error"

// GetError returns the fake error.
func GetError() error {
	return xerrors.New(fakeErrMsg)
}

// Err returns the expected message of an error wrapping the fake error with
// the given prefix.
func Err(msg string) string {
	return msg + ": " + fakeErrMsg
}

// Message is a fake implementation of a serde message.
//
// - implements serde.Message
type Message struct{}

// Serialize implements serde.Message.
func (m Message) Serialize(serde.Context) ([]byte, error) {
	return []byte("{}"), nil
}

// Format is a fake format engine.
//
// - implements serde.FormatEngine
type Format struct {
	Msg serde.Message
	err error
}

// NewBadFormat returns a format engine that always fails.
func NewBadFormat() Format {
	return Format{err: GetError()}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(ctx serde.Context, m serde.Message) ([]byte, error) {
	return []byte("fake format"), f.err
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.Msg, f.err
}

// ContextEngine is a fake context engine using the JSON encoding, but
// announcing a fake format so that a test can register its own format.
//
// - implements serde.ContextEngine
type contextEngine struct {
	format serde.Format
	err    error
}

// NewContext returns a new context using the JSON encoding.
func NewContext() serde.Context {
	return NewContextWithFormat(serde.FormatJSON)
}

// NewContextWithFormat returns a new context announcing the format but using
// the JSON encoding.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(contextEngine{format: f})
}

// NewBadContext returns a new context that fails to marshal and unmarshal.
func NewBadContext() serde.Context {
	return serde.NewContext(contextEngine{format: serde.FormatJSON, err: GetError()})
}

// GetFormat implements serde.ContextEngine.
func (ctx contextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx contextEngine) Marshal(m interface{}) ([]byte, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}

	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (ctx contextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.err != nil {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}
