// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package socketed is the core of a connection-and-stream multiplexing
// runtime built on QUIC. An Endpoint accepts or opens secure, multiplexed
// Connections; each incoming stream is dispatched by a *registry.Registry*
// to a typed, application-registered handler chosen by a short identifier
// written as the first framed value on the stream. The same registry
// drives a symmetric initiator path: open a stream, write the identifier,
// run an application callback against it.
//
// A Connection can also be Local: a loopback peer whose three stream kinds
// are backed by in-process channels instead of a real QUIC connection, so
// the exact same handler code runs whether the peer is remote or the
// process talking to itself.
//
// Subpackages:
//   - wire: length-prefixed framing primitives (Writer/Reader).
//   - stream: the three stream kinds, their Remote/Local carriers, and the
//     compile-time Opener/Extractor markers a handler is parameterized by.
//   - handler: the application-facing Identifier/Initiator/Receiver
//     contracts.
//   - registry: the type-erased identifier → registration map and its
//     dispatch/initiator paths.
//   - tasks: the scoped goroutine group every long-running activity runs
//     under.
package socketed
