package grpcbus

import (
	"golang.org/x/xerrors"
	"google.golang.org/grpc/encoding"
)

const codecName = "rgbd-frame"

// frame is the message carried by the streams. The content is already
// encoded by the rpc package so it is passed through as is.
type frame struct {
	data []byte
}

// frameCodec is a gRPC codec that writes the frames without any further
// encoding.
//
// - implements encoding.Codec
type frameCodec struct{}

// Marshal implements encoding.Codec.
func (frameCodec) Marshal(v interface{}) ([]byte, error) {
	f, ok := v.(*frame)
	if !ok {
		return nil, xerrors.Errorf("invalid message '%T'", v)
	}

	return f.data, nil
}

// Unmarshal implements encoding.Codec. The data is copied as the buffer is
// owned by gRPC.
func (frameCodec) Unmarshal(data []byte, v interface{}) error {
	f, ok := v.(*frame)
	if !ok {
		return xerrors.Errorf("invalid message '%T'", v)
	}

	f.data = make([]byte, len(data))
	copy(f.data, data)

	return nil
}

// Name implements encoding.Codec.
func (frameCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(frameCodec{})
}
