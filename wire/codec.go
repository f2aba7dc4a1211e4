// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/gob"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes application values for the value[T] framing
// rule. Both ends of a connection must agree on a Codec for any identifier
// whose payloads are not raw bytes or strings.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// gobCodec is the default Codec. It is the deterministic binary encoding the
// current core uses for everything but the handler-identifier frame, which
// always takes the raw-string fast path regardless of Codec.
type gobCodec struct{}

func (gobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// DefaultCodec is gob-based and used unless a Writer/Reader is constructed
// with WithCodec.
var DefaultCodec Codec = gobCodec{}

// LegacyCodec is a self-describing codec kept for deployments that still
// speak the prior generation's msgpack-framed wire format (see spec §9's
// Open Question). It is opt-in via WithCodec(LegacyCodec{}); the default
// path never pays for self-description.
type LegacyCodec struct{}

func (LegacyCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (LegacyCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
