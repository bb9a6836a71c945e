// Package apiconnect wires the settleup.v1 services to Connect handlers and
// clients. It plays the role protoc-gen-connect-go output usually plays,
// with messages from package api carried by a JSON codec.
package apiconnect

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is registered under the name Connect uses for application/json,
// so browsers and curl can call the services with plain JSON bodies.
const CodecName = "json"

// Codec marshals api messages with encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	// An empty body is a message with every field unset.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("failed to decode %T: %w", msg, err)
	}
	return nil
}
