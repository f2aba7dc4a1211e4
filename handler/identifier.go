// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package handler

import (
	"context"

	"code.socketed.dev/socketed/stream"
)

// Connection is the subset of *socketed.Connection a handler needs: the
// ability to open streams of any kind and to spawn further tasks owned by
// the connection. Kept narrow here so this package never imports socketed.
type Connection interface {
	stream.Dialer
	Spawn(target string, fn func(context.Context) error)
}

// ReceiveContext is handed to a ReceiveBuilder once the registry has
// extracted the expected stream kind from an Incoming value.
type ReceiveContext[TRecv any] struct {
	Conn   Connection
	Stream TRecv
}

// Receiver is the running instance of a handler's receive side. Receive is
// expected to spawn any further tasks it needs on Conn and return promptly;
// long-lived work belongs in a spawned task, not in Receive itself.
type Receiver interface {
	Receive(ctx context.Context) error
}

// ReceiveBuilder is the receive half of an application's registration: it
// declares which stream kind it accepts via Extractor, and builds a
// Receiver from the extracted stream.
type ReceiveBuilder[TRecv any] interface {
	Extractor() stream.Extractor[TRecv]
	Build(ctx ReceiveContext[TRecv]) (Receiver, error)
}

// SendContext is handed to a SendBuilder once the registry's initiator path
// has opened the outgoing stream and written the identifier frame.
type SendContext[TSend any] struct {
	Conn   Connection
	Stream TSend
}

// Initiator is the running instance of a handler's send side.
type Initiator interface {
	Run(ctx context.Context) error
}

// SendBuilder is the send half of an application's registration: it
// declares which stream kind it opens via Opener, and builds an Initiator
// from the opened stream.
type SendBuilder[TSend any] interface {
	Opener() stream.Opener[TSend]
	Build(ctx SendContext[TSend]) (Initiator, error)
}

// Identifier is the application-provided registration value: the static
// string name plus both builder halves. A single Identifier value is kept
// behind a type-erased reference by the registry and used both to dispatch
// incoming streams and to drive the initiator path for outgoing ones.
type Identifier[TSend, TRecv any] interface {
	ID() string
	Send() SendBuilder[TSend]
	Recv() ReceiveBuilder[TRecv]
}
