// Package serde defines the primitives to serialize and deserialize (serde)
// the messages of the node.
//
// A message is encoded by a format engine looked up for the format of the
// context. Two formats are provided: JSON for the human-facing presentation,
// and canonical CBOR for the wire, which is deterministic so that messages
// can be replayed byte for byte.
package serde

// Format is the identifier of a format.
type Format string

const (
	// FormatJSON is the identifier of the JSON format.
	FormatJSON Format = "JSON"

	// FormatCBOR is the identifier of the canonical CBOR format.
	FormatCBOR Format = "CBOR"
)

// Message is the interface a data model should implement to be serialized.
type Message interface {
	// Serialize returns the data of the message according to the format of
	// the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to instantiate a message from its
// data.
type Factory interface {
	// Deserialize returns the message of the data according to the format of
	// the context.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// FormatEngine is the interface to implement to encode and decode the
// messages of a package for a given format.
type FormatEngine interface {
	// Encode returns the data of the message.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message of the data.
	Decode(ctx Context, data []byte) (Message, error)
}
