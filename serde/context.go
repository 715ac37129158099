package serde

import "golang.org/x/xerrors"

// ErrNoEngine is returned by the zero value of a context.
var ErrNoEngine = xerrors.New("context without engine")

// ContextEngine is the interface to implement to create a context.
type ContextEngine interface {
	// GetFormat returns the name of the format for this context.
	GetFormat() Format

	// Marshal returns the bytes of the message according to the format of the
	// context.
	Marshal(message interface{}) ([]byte, error)

	// Unmarshal populates the message with the data according to the format of
	// the context.
	Unmarshal(data []byte, message interface{}) error
}

// Context is the context passed to the serialization and deserialization
// requests. It is a value so that it can be shared by the connections of a
// service. The zero value has no engine and fails every request.
type Context struct {
	engine ContextEngine
}

// NewContext returns a context using the engine.
func NewContext(engine ContextEngine) Context {
	return Context{engine: engine}
}

// GetFormat returns the format of the engine, or an empty format for the zero
// value.
func (ctx Context) GetFormat() Format {
	if ctx.engine == nil {
		return ""
	}

	return ctx.engine.GetFormat()
}

// Marshal returns the bytes of the message in the format of the context.
func (ctx Context) Marshal(message interface{}) ([]byte, error) {
	if ctx.engine == nil {
		return nil, ErrNoEngine
	}

	return ctx.engine.Marshal(message)
}

// Unmarshal populates the message with the data in the format of the context.
func (ctx Context) Unmarshal(data []byte, message interface{}) error {
	if ctx.engine == nil {
		return ErrNoEngine
	}

	return ctx.engine.Unmarshal(data, message)
}
