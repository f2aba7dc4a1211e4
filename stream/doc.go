// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stream defines the three stream kinds a handler can open or
// receive — unidirectional, bidirectional, and datagram — and the Remote
// (real QUIC transport) and Local (in-process channel) carriers for each.
//
// Send and Recv are the capability interfaces handlers actually use; Opener
// and Extractor are the compile-time markers a handler's Identifier is
// parameterized by, fixing which kind it opens and which kind it can accept
// out of the generic Incoming sum type.
package stream
