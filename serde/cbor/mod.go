// Package cbor implements the context engine for the canonical CBOR format.
//
// The encoding follows the canonical options of RFC 7049 so that two equal
// messages always produce the same bytes. Structures are expected to be
// tagged with `cbor:",toarray"` so that the fields are encoded in the order
// of their declaration, without names.
package cbor

import (
	"github.com/fxamacker/cbor/v2"
	"go.dedis.ch/rgbd/serde"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("invalid canonical options: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic("invalid decoding options: " + err.Error())
	}
}

// cborEngine is a context engine to marshal and unmarshal in canonical CBOR.
//
// - implements serde.ContextEngine
type cborEngine struct{}

// NewContext returns a CBOR context.
func NewContext() serde.Context {
	return serde.NewContext(cborEngine{})
}

// Marshal returns the canonical CBOR encoding of the value.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal populates the value with the CBOR data.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// GetFormat implements serde.ContextEngine. It returns the CBOR format name.
func (cborEngine) GetFormat() serde.Format {
	return serde.FormatCBOR
}

// Marshal implements serde.ContextEngine. It returns the canonical CBOR bytes
// of the message.
func (cborEngine) Marshal(m interface{}) ([]byte, error) {
	return Marshal(m)
}

// Unmarshal implements serde.ContextEngine. It populates the message with the
// CBOR data.
func (cborEngine) Unmarshal(data []byte, m interface{}) error {
	return Unmarshal(data, m)
}
