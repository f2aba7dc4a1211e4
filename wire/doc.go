// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire provides the length-prefixed framing primitives shared by
// every stream kind in socketed.
//
// Semantics and design:
//   - size: a fixed 4-byte little-endian uint32.
//   - bytes: size ∥ raw bytes.
//   - value[T]: bytes whose payload is a deterministic binary encoding of T.
//     Strings are always encoded as their raw UTF-8 bytes, independent of the
//     configured Codec, so the handler-identifier frame (the first value on
//     every application stream) is cheap and self-contained.
//   - Writer and Reader are satisfied by two families of implementation: a
//     stream-backed pair (StreamWriter/StreamReader, wrapping any io.Writer/
//     io.Reader — used for remote QUIC streams and for building a single
//     datagram payload) and a channel-backed pair living in package stream
//     (used for local, in-process connections, where framing is bypassed
//     entirely in favor of passing typed values directly).
package wire
