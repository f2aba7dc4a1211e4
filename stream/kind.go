// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import "code.socketed.dev/socketed/wire"

// Kind identifies which of the three stream shapes an Incoming value holds.
type Kind uint8

const (
	KindUni Kind = iota + 1
	KindBi
	KindDatagram
)

func (k Kind) String() string {
	switch k {
	case KindUni:
		return "uni"
	case KindBi:
		return "bi"
	case KindDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// Send is the outgoing capability of a stream: framed writes plus a way to
// signal there is no more data.
type Send interface {
	wire.Writer
	// Finish closes the send side (ongoing streams) or transmits the
	// accumulated buffer as a single datagram.
	Finish() error
}

// Recv is the incoming capability of a stream: framed reads plus a way to
// cancel further reading.
type Recv interface {
	wire.Reader
	// Stop signals the peer to stop sending with the given application
	// error code. It is a no-op for datagrams and for Local streams, which
	// have no reset primitive.
	Stop(code uint64) error
}

// BiEnds is the pair of independent directions a bidirectional stream opens.
type BiEnds struct {
	Send Send
	Recv Recv
}

// Incoming is the tagged sum a connection's pumps hand to the registry:
// Unidirectional(Recv), Bidirectional(Send, Recv), or Datagram(Recv).
type Incoming struct {
	kind  Kind
	uni   Recv
	bi    BiEnds
	dgram Recv
}

// NewIncomingUni wraps a unidirectional receive side.
func NewIncomingUni(r Recv) Incoming { return Incoming{kind: KindUni, uni: r} }

// NewIncomingBi wraps a bidirectional send/recv pair.
func NewIncomingBi(ends BiEnds) Incoming { return Incoming{kind: KindBi, bi: ends} }

// NewIncomingDatagram wraps a datagram receive side.
func NewIncomingDatagram(r Recv) Incoming { return Incoming{kind: KindDatagram, dgram: r} }

// Kind reports which arm of the sum is populated.
func (in Incoming) Kind() Kind { return in.kind }

// Uni extracts the unidirectional arm, or ErrUnimplementedKind.
func (in Incoming) Uni() (Recv, error) {
	if in.kind != KindUni {
		return nil, ErrUnimplementedKind
	}
	return in.uni, nil
}

// Bi extracts the bidirectional arm, or ErrUnimplementedKind.
func (in Incoming) Bi() (BiEnds, error) {
	if in.kind != KindBi {
		return BiEnds{}, ErrUnimplementedKind
	}
	return in.bi, nil
}

// Datagram extracts the datagram arm, or ErrUnimplementedKind.
func (in Incoming) Datagram() (Recv, error) {
	if in.kind != KindDatagram {
		return nil, ErrUnimplementedKind
	}
	return in.dgram, nil
}

// ReadIdentifier reads the first framed value off in's underlying receive
// side as a string, regardless of kind. The registry calls this before it
// knows which Extractor applies, since the identifier frame is what picks
// the Extractor in the first place.
func ReadIdentifier(in Incoming) (string, error) {
	switch in.kind {
	case KindUni:
		return in.uni.ReadString()
	case KindBi:
		return in.bi.Recv.ReadString()
	case KindDatagram:
		return in.dgram.ReadString()
	default:
		return "", ErrUnimplementedKind
	}
}
