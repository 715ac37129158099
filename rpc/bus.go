package rpc

import (
	"encoding/binary"
	"fmt"

	"go.dedis.ch/rgbd/serde"
	"golang.org/x/xerrors"
)

// BusType is the identifier of a protocol multiplexed on a bus.
type BusType uint16

// BusRPC is the identifier of the protocol of this package.
const BusRPC BusType = 4

// busHeaderSize is the size of the type prefix of a bus frame.
const busHeaderSize = 2

// BusMsg is the envelope of a message on the bus.
//
// - implements serde.Message
type BusMsg struct {
	Type BusType
	Msg  Message
}

// NewBusMsg returns the envelope of the protocol message.
func NewBusMsg(msg Message) BusMsg {
	return BusMsg{
		Type: BusRPC,
		Msg:  msg,
	}
}

// String implements fmt.Stringer.
func (m BusMsg) String() string {
	if m.Msg == nil {
		return fmt.Sprintf("bus(%d)", uint16(m.Type))
	}

	return m.Msg.String()
}

// Serialize implements serde.Message. It returns the type of the protocol as
// a big-endian 16-bit integer followed by the encoding of the message.
func (m BusMsg) Serialize(ctx serde.Context) ([]byte, error) {
	if m.Type != BusRPC {
		return nil, xerrors.Errorf("unknown bus type %d", m.Type)
	}

	if m.Msg == nil {
		return nil, xerrors.New("bus message is empty")
	}

	payload, err := m.Msg.Serialize(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]byte, busHeaderSize+len(payload))
	binary.BigEndian.PutUint16(data, uint16(m.Type))
	copy(data[busHeaderSize:], payload)

	return data, nil
}

// PresentationError is the error of a frame that cannot be decoded.
//
// - implements error
type PresentationError struct {
	Err error
}

// Error implements error.
func (e PresentationError) Error() string {
	return fmt.Sprintf("presentation error: %v", e.Err)
}

// Unwrap returns the decoding error.
func (e PresentationError) Unwrap() error {
	return e.Err
}

// BusFactory is the factory to deserialize the envelopes of the bus.
//
// - implements serde.Factory
type BusFactory struct {
	msgFac MessageFactory
}

// NewBusFactory returns a new bus factory.
func NewBusFactory() BusFactory {
	return BusFactory{
		msgFac: NewMessageFactory(),
	}
}

// Deserialize implements serde.Factory. It returns the envelope of the data.
func (f BusFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.BusMsgOf(ctx, data)
}

// BusMsgOf returns the envelope of the data. Any error is a presentation error
// that can be reported to the peer with FromPresentation.
func (f BusFactory) BusMsgOf(ctx serde.Context, data []byte) (BusMsg, error) {
	if len(data) < busHeaderSize {
		return BusMsg{}, PresentationError{
			Err: xerrors.Errorf("frame too short: %d bytes", len(data)),
		}
	}

	typ := BusType(binary.BigEndian.Uint16(data))
	if typ != BusRPC {
		return BusMsg{}, PresentationError{Err: xerrors.Errorf("unknown bus type %d", typ)}
	}

	msg, err := f.msgFac.MessageOf(ctx, data[busHeaderSize:])
	if err != nil {
		return BusMsg{}, PresentationError{Err: err}
	}

	return BusMsg{Type: typ, Msg: msg}, nil
}
