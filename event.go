// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed

import (
	"context"
	"net"
	"weak"

	"code.socketed.dev/socketed/internal/queue"
)

// EventKind discriminates the two shapes Event can hold.
type EventKind uint8

const (
	// EventCreated reports a new Connection, Remote or Local. Conn is valid
	// only for this kind.
	EventCreated EventKind = iota + 1

	// EventDropped reports that a Connection's pumps have all terminated.
	// Addr is valid only for this kind; for a dropped Local connection it is
	// the owning Endpoint's own bound address.
	EventDropped
)

// Event is the sum type delivered over an Endpoint's connection-event
// stream.
type Event struct {
	Kind EventKind
	Conn weak.Pointer[Connection]
	Addr net.Addr
}

// EventReceiver is the read end of an Endpoint's unbounded event stream.
// Its zero value is not usable; obtain one from Endpoint.ConnectionReceiver.
type EventReceiver struct {
	q *queue.Unbounded[Event]
}

// Recv blocks until an Event is available, the Endpoint is closed, or ctx is
// done.
func (r *EventReceiver) Recv(ctx context.Context) (Event, error) {
	return r.q.Pop(ctx)
}
