// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"reflect"
)

// Reader is the framed read side shared by every stream kind.
type Reader interface {
	// ReadExact reads exactly n bytes or returns an error. io.EOF is
	// returned only if zero bytes were read before the source ended;
	// otherwise io.ErrUnexpectedEOF is returned.
	ReadExact(n uint32) ([]byte, error)

	// ReadSize reads a fixed 4-byte little-endian prefix.
	ReadSize() (uint32, error)

	// ReadBytes reads ReadSize() followed by ReadExact of that many bytes.
	ReadBytes() ([]byte, error)

	// ReadValue reads a ReadBytes payload and decodes it into v, a pointer.
	// A *string target always takes the raw-UTF-8 fast path, matching
	// WriteValue.
	ReadValue(v any) error

	// ReadString is a convenience wrapper over ReadValue for the common
	// handler-identifier frame.
	ReadString() (string, error)
}

// StreamReader is the Remote Reader implementation: it parses length-prefixed
// frames from any io.Reader, including a real QUIC receive stream or the
// fixed byte slice delivered as one datagram.
type StreamReader struct {
	r         io.Reader
	codec     Codec
	readLimit uint32
}

// NewStreamReader wraps r with length-prefixed framing.
func NewStreamReader(r io.Reader, opts ...Option) *StreamReader {
	o := resolve(opts)
	return &StreamReader{r: r, codec: o.Codec, readLimit: o.ReadLimit}
}

func (sr *StreamReader) ReadExact(n uint32) ([]byte, error) {
	if sr.r == nil {
		return nil, ErrInvalidArgument
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(sr.r, buf)
	if err != nil {
		if err == io.EOF && got == 0 {
			return nil, io.EOF
		}
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

func (sr *StreamReader) ReadSize() (uint32, error) {
	hdr, err := sr.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(hdr), nil
}

func (sr *StreamReader) ReadBytes() ([]byte, error) {
	n, err := sr.ReadSize()
	if err != nil {
		return nil, err
	}
	if sr.readLimit > 0 && n > sr.readLimit {
		return nil, ErrTooLong
	}
	return sr.ReadExact(n)
}

func (sr *StreamReader) ReadValue(v any) error {
	data, err := sr.ReadBytes()
	if err != nil {
		return err
	}
	if sp, ok := v.(*string); ok {
		*sp = string(data)
		return nil
	}
	return sr.codec.Decode(data, v)
}

func (sr *StreamReader) ReadString() (string, error) {
	data, err := sr.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// assignInto is shared with package stream's Local reader, which already
// holds a decoded Go value (not bytes) and only needs the downcast-and-assign
// half of ReadValue's contract.
func assignInto(boxed any, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrInvalidArgument
	}
	bv := reflect.ValueOf(boxed)
	if !bv.IsValid() || !bv.Type().AssignableTo(rv.Elem().Type()) {
		return ErrInvalidTypeEncountered
	}
	rv.Elem().Set(bv)
	return nil
}

// AssignInto exposes assignInto to package stream.
func AssignInto(boxed any, v any) error { return assignInto(boxed, v) }
