// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"bytes"
	"io"

	"code.socketed.dev/socketed/wire"
)

// RemoteSend frames values onto a real QUIC send-capable stream.
type RemoteSend struct {
	*wire.StreamWriter
	closeFn func() error
}

// NewRemoteSend wraps w (a quic.SendStream or quic.Stream) for writing;
// closeFn is called on Finish, normally the stream's Close method (which
// signals FIN on the send side without tearing down the whole connection).
func NewRemoteSend(w io.Writer, closeFn func() error, opts ...wire.Option) *RemoteSend {
	return &RemoteSend{StreamWriter: wire.NewStreamWriter(w, opts...), closeFn: closeFn}
}

// Finish signals end-of-stream on the send side.
func (s *RemoteSend) Finish() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// RemoteRecv frames values off a real QUIC receive-capable stream, or off a
// fixed byte buffer for a received datagram.
type RemoteRecv struct {
	*wire.StreamReader
	stopFn func(code uint64)
}

// NewRemoteRecv wraps r (a quic.ReceiveStream, quic.Stream, or a
// bytes.Reader over a datagram payload) for reading; stopFn, if non-nil, is
// called by Stop to reset the receive side.
func NewRemoteRecv(r io.Reader, stopFn func(code uint64), opts ...wire.Option) *RemoteRecv {
	return &RemoteRecv{StreamReader: wire.NewStreamReader(r, opts...), stopFn: stopFn}
}

// Stop cancels further reads from the peer with the given application error
// code. It is a no-op for datagram receive sides, which have already
// delivered their whole payload.
func (r *RemoteRecv) Stop(code uint64) error {
	if r.stopFn != nil {
		r.stopFn(code)
	}
	return nil
}

// RemoteDatagramSend accumulates writes into an in-memory buffer and
// transmits the whole buffer as one unreliable datagram on Finish.
type RemoteDatagramSend struct {
	*wire.StreamWriter
	buf  *bytes.Buffer
	send func([]byte) error
}

// NewRemoteDatagramSend returns a datagram-building Send whose Finish hands
// the accumulated payload to send (normally quic.Connection.SendDatagram).
func NewRemoteDatagramSend(send func([]byte) error, opts ...wire.Option) *RemoteDatagramSend {
	buf := &bytes.Buffer{}
	return &RemoteDatagramSend{StreamWriter: wire.NewStreamWriter(buf, opts...), buf: buf, send: send}
}

// Finish transmits the accumulated buffer as a single datagram.
func (d *RemoteDatagramSend) Finish() error {
	return d.send(d.buf.Bytes())
}

// NewRemoteDatagramRecv wraps a fully-received datagram payload for framed
// reads. Reads never block: the whole payload is already in memory.
func NewRemoteDatagramRecv(payload []byte, opts ...wire.Option) *RemoteRecv {
	return NewRemoteRecv(bytes.NewReader(payload), nil, opts...)
}
