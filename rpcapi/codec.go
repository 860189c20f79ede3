package rpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype this package registers its codec
// under. No .proto file is compiled for this service: there is no protoc
// toolchain available in this environment, so Query/Reply/TypedValue are
// carried as plain JSON messages over the gRPC framing instead of a
// generated protobuf wire format. See DESIGN.md for the rationale.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
