// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer is the framed write side shared by every stream kind.
type Writer interface {
	// WriteExact writes p in full or returns an error. It never interprets p.
	WriteExact(p []byte) error

	// WriteSize writes n as a fixed 4-byte little-endian prefix.
	WriteSize(n uint32) error

	// WriteBytes writes WriteSize(len(p)) followed by WriteExact(p).
	WriteBytes(p []byte) error

	// WriteValue encodes v with the Writer's Codec (raw UTF-8 bytes for a
	// string, regardless of Codec) and writes it as WriteBytes.
	WriteValue(v any) error
}

// StreamWriter is the Remote Writer implementation: it frames values onto
// any io.Writer, including a real QUIC send stream or an in-memory buffer
// used to build a single outgoing datagram.
type StreamWriter struct {
	w     io.Writer
	codec Codec
}

// NewStreamWriter wraps w with length-prefixed framing.
func NewStreamWriter(w io.Writer, opts ...Option) *StreamWriter {
	o := resolve(opts)
	return &StreamWriter{w: w, codec: o.Codec}
}

func (sw *StreamWriter) WriteExact(p []byte) error {
	if sw.w == nil {
		return ErrInvalidArgument
	}
	for off := 0; off < len(p); {
		n, err := sw.w.Write(p[off:])
		off += n
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
	}
	return nil
}

func (sw *StreamWriter) WriteSize(n uint32) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], n)
	return sw.WriteExact(hdr[:])
}

func (sw *StreamWriter) WriteBytes(p []byte) error {
	if uint64(len(p)) > math.MaxUint32 {
		return ErrTooLong
	}
	if err := sw.WriteSize(uint32(len(p))); err != nil {
		return err
	}
	return sw.WriteExact(p)
}

func (sw *StreamWriter) WriteValue(v any) error {
	if s, ok := v.(string); ok {
		return sw.WriteBytes([]byte(s))
	}
	data, err := sw.codec.Encode(v)
	if err != nil {
		return err
	}
	return sw.WriteBytes(data)
}
