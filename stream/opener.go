// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import "context"

// Dialer is the subset of Connection a stream kind needs to open its
// outgoing side. It exists so package stream does not import package
// socketed (which imports stream for the Incoming/Send/Recv vocabulary);
// *socketed.Connection satisfies this interface structurally.
type Dialer interface {
	OpenUni(ctx context.Context) (Send, error)
	OpenBi(ctx context.Context) (Send, Recv, error)
	OpenDatagram(ctx context.Context) (Send, error)
}

// Opener is the compile-time strategy a handler's Identifier uses to open
// its outgoing stream.
type Opener[T any] interface {
	Open(ctx context.Context, d Dialer) (T, error)
}

// Extractor is the compile-time strategy a handler's Identifier uses to pull
// its expected stream type out of the generic Incoming sum.
type Extractor[T any] interface {
	Extract(in Incoming) (T, error)
}

// Uni is the marker value for unidirectional streams: Opener[Send] and
// Extractor[Recv].
type Uni struct{}

func (Uni) Open(ctx context.Context, d Dialer) (Send, error) { return d.OpenUni(ctx) }
func (Uni) Extract(in Incoming) (Recv, error)                { return in.Uni() }

// Bi is the marker value for bidirectional streams: Opener[BiEnds] and
// Extractor[BiEnds].
type Bi struct{}

func (Bi) Open(ctx context.Context, d Dialer) (BiEnds, error) {
	s, r, err := d.OpenBi(ctx)
	if err != nil {
		return BiEnds{}, err
	}
	return BiEnds{Send: s, Recv: r}, nil
}

func (Bi) Extract(in Incoming) (BiEnds, error) { return in.Bi() }

// Datagram is the marker value for datagram streams: Opener[Send] and
// Extractor[Recv].
type Datagram struct{}

func (Datagram) Open(ctx context.Context, d Dialer) (Send, error) { return d.OpenDatagram(ctx) }
func (Datagram) Extract(in Incoming) (Recv, error)                { return in.Datagram() }

// WriteIdentifier writes id as the first frame on an opened stream. opened
// must be either a Send (the Uni/Datagram case) or a BiEnds (the
// Bidirectional case, whose identifier frame goes out on its Send half).
// It exists so the registry's generic initiator path can write the
// identifier frame without knowing which kind a given handler opens.
func WriteIdentifier(opened any, id string) error {
	switch v := opened.(type) {
	case Send:
		return v.WriteValue(id)
	case BiEnds:
		return v.Send.WriteValue(id)
	default:
		return ErrUnimplementedKind
	}
}
