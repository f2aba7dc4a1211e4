// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"runtime"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"code.socketed.dev/socketed/internal/queue"
	"code.socketed.dev/socketed/registry"
	"code.socketed.dev/socketed/stream"
	"code.socketed.dev/socketed/tasks"
)

type connState int32

const (
	stateOpening connState = iota
	stateActive
	stateClosed
)

// Connection multiplexes the three stream kinds over either a real QUIC
// transport (Remote) or a pair of in-process queue triples (Local). It
// implements stream.Dialer and handler.Connection structurally, so it can be
// handed to a registry without either package importing this one.
//
// Every Connection is handed out only as a weak.Pointer, through its owning
// Endpoint's event stream or Endpoint.Connect; the Endpoint keeps no strong
// reference to it. The Connection's own pump and dispatch goroutines do hold
// strong references, so it stays reachable, and its pumps keep running, until
// they end: on Close, on Endpoint.Close, or when the transport reports the
// connection lost. Dropping the application's pointers alone does not tear
// it down.
type Connection struct {
	id       uuid.UUID
	endpoint weak.Pointer[Endpoint]
	log      *zerolog.Logger
	tasks    *tasks.Group
	state    atomic.Int32

	// localCtx is this connection's own lifetime context, distinct from
	// ep.baseCtx: a blocking Local read (stream.LocalRecv.ReadString, etc.)
	// is parked on localCtx, so Close can wake it without waiting for the
	// whole Endpoint to go down.
	localCtx    context.Context
	localCancel context.CancelFunc

	quicConn quic.Connection // nil for Local

	local *localQueues // nil for Remote
}

// localQueues holds the three independent FIFOs a Local Connection's pumps
// drain; OpenUni/OpenBi/OpenDatagram push newly-opened Incoming values onto
// them, looping the connection back to itself.
type localQueues struct {
	uni      *queue.Unbounded[stream.Incoming]
	bi       *queue.Unbounded[stream.Incoming]
	datagram *queue.Unbounded[stream.Incoming]
}

func newLocalQueues() *localQueues {
	return &localQueues{uni: queue.New[stream.Incoming](), bi: queue.New[stream.Incoming](), datagram: queue.New[stream.Incoming]()}
}

// incomingSource is the one-shape-fits-all accept primitive a pump drains;
// Remote and Local each supply three (one per stream kind) so the pump loop
// itself does not need to know which transport it is running over.
type incomingSource interface {
	next(ctx context.Context) (stream.Incoming, error)
}

type uniSource struct{ qc quic.Connection }

func (s uniSource) next(ctx context.Context) (stream.Incoming, error) {
	rs, err := s.qc.AcceptUniStream(ctx)
	if err != nil {
		return stream.Incoming{}, err
	}
	recv := stream.NewRemoteRecv(rs, func(code uint64) { rs.CancelRead(quic.StreamErrorCode(code)) })
	return stream.NewIncomingUni(recv), nil
}

type biSource struct{ qc quic.Connection }

func (s biSource) next(ctx context.Context) (stream.Incoming, error) {
	st, err := s.qc.AcceptStream(ctx)
	if err != nil {
		return stream.Incoming{}, err
	}
	send := stream.NewRemoteSend(st, st.Close)
	recv := stream.NewRemoteRecv(st, func(code uint64) { st.CancelRead(quic.StreamErrorCode(code)) })
	return stream.NewIncomingBi(stream.BiEnds{Send: send, Recv: recv}), nil
}

type datagramSource struct{ qc quic.Connection }

func (s datagramSource) next(ctx context.Context) (stream.Incoming, error) {
	payload, err := s.qc.ReceiveDatagram(ctx)
	if err != nil {
		return stream.Incoming{}, err
	}
	return stream.NewIncomingDatagram(stream.NewRemoteDatagramRecv(payload)), nil
}

type localSource struct{ q *queue.Unbounded[stream.Incoming] }

func (s localSource) next(ctx context.Context) (stream.Incoming, error) { return s.q.Pop(ctx) }

func newRemoteConnection(ep *Endpoint, qc quic.Connection) *Connection {
	c := &Connection{id: uuid.New(), endpoint: weak.Make(ep), log: ep.log, quicConn: qc}
	c.tasks = tasks.NewGroup(ep.baseCtx, ep.log)
	c.localCtx, c.localCancel = context.WithCancel(ep.baseCtx)
	c.state.Store(int32(stateActive))
	c.armDropLogging()

	c.tasks.Spawn("connection.pumps", func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error { return c.pump(ctx, uniSource{qc}) })
		g.Go(func() error { return c.pump(ctx, biSource{qc}) })
		g.Go(func() error { return c.pump(ctx, datagramSource{qc}) })
		err := g.Wait()
		c.emitDropped()
		return err
	})
	return c
}

func newLocalConnection(ep *Endpoint) *Connection {
	c := &Connection{id: uuid.New(), endpoint: weak.Make(ep), log: ep.log, local: newLocalQueues()}
	c.tasks = tasks.NewGroup(ep.baseCtx, ep.log)
	c.localCtx, c.localCancel = context.WithCancel(ep.baseCtx)
	c.state.Store(int32(stateActive))
	c.armDropLogging()

	c.tasks.Spawn("connection.pumps", func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error { return c.pump(ctx, localSource{c.local.uni}) })
		g.Go(func() error { return c.pump(ctx, localSource{c.local.bi}) })
		g.Go(func() error { return c.pump(ctx, localSource{c.local.datagram}) })
		err := g.Wait()
		c.emitDropped()
		return err
	})
	return c
}

// cleanupInfo is the argument passed to runtime.AddCleanup's finalizer. It
// must not retain a reference back to the Connection being finalized.
type cleanupInfo struct {
	remote string
	log    *zerolog.Logger
}

// armDropLogging registers a best-effort log line for when this Connection
// becomes unreachable and is collected. It is observability only: actual
// teardown happens via c.tasks, driven by context cancellation, never by the
// garbage collector's schedule.
func (c *Connection) armDropLogging() {
	info := cleanupInfo{remote: fmt.Sprint(c.RemoteAddress()), log: c.log}
	runtime.AddCleanup(c, func(info cleanupInfo) {
		info.log.Debug().Str("remote", info.remote).Msg("connection collected")
	}, info)
}

func (c *Connection) pump(ctx context.Context, src incomingSource) error {
	for {
		in, err := src.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ep := c.endpoint.Value()
		if ep == nil {
			return ErrEndpointDropped
		}
		registry.CreateReceiver(ep.registry, c, ep.log, in)
	}
}

func (c *Connection) emitDropped() {
	c.state.Store(int32(stateClosed))
	c.tasks.Close()
	c.localCancel()
	ep := c.endpoint.Value()
	if ep == nil {
		return
	}
	ep.events.Push(Event{Kind: EventDropped, Addr: c.RemoteAddress()})
}

func (c *Connection) active() bool { return connState(c.state.Load()) == stateActive }

// Resolve upgrades a weak.Pointer[Connection] handed out by an Event or by
// Endpoint.Connect, reporting ErrConnectionDropped instead of a bare nil
// when the Connection it named has already been collected.
func Resolve(w weak.Pointer[Connection]) (*Connection, error) {
	c := w.Value()
	if c == nil {
		return nil, ErrConnectionDropped
	}
	return c, nil
}

// IsLocal reports whether this Connection loops back to its own Endpoint
// rather than carrying traffic over a real QUIC transport.
func (c *Connection) IsLocal() bool { return c.quicConn == nil }

// RemoteAddress returns the peer's address for a Remote connection, or the
// owning Endpoint's own bound address for a Local one. It returns nil if the
// owning Endpoint has already been dropped.
func (c *Connection) RemoteAddress() net.Addr {
	if c.quicConn != nil {
		return c.quicConn.RemoteAddr()
	}
	ep := c.endpoint.Value()
	if ep == nil {
		return nil
	}
	return ep.LocalAddr()
}

// PeerIdentity returns the transport-reported peer certificate chain for a
// Remote connection, or the owning Endpoint's own certificate for a Local
// one (a loopback connection's "peer" is itself). It returns nil if neither
// is available.
func (c *Connection) PeerIdentity() any {
	if c.quicConn != nil {
		chain := c.quicConn.ConnectionState().TLS.PeerCertificates
		if len(chain) == 0 {
			return nil
		}
		return chain
	}
	ep := c.endpoint.Value()
	if ep == nil {
		return nil
	}
	return ep.cert
}

// Certificate resolves PeerIdentity down to a single *x509.Certificate: the
// last certificate in a Remote chain, or the last certificate of a Local
// Endpoint's own chain, parsed.
func (c *Connection) Certificate() (*x509.Certificate, error) {
	switch v := c.PeerIdentity().(type) {
	case nil:
		return nil, ErrNoIdentity
	case []*x509.Certificate:
		if len(v) == 0 {
			return nil, ErrCertificateIdentityIsEmpty
		}
		return v[len(v)-1], nil
	case tls.Certificate:
		if len(v.Certificate) == 0 {
			return nil, ErrCertificateIdentityIsEmpty
		}
		cert, err := x509.ParseCertificate(v.Certificate[len(v.Certificate)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIdentityIsNotCertificate, err)
		}
		return cert, nil
	default:
		return nil, ErrIdentityIsNotCertificate
	}
}

// Fingerprint returns the base64url-encoded SHA-256 digest of the peer
// certificate's DER bytes, per Certificate.
func (c *Connection) Fingerprint() (string, error) {
	cert, err := c.Certificate()
	if err != nil {
		return "", err
	}
	return fingerprintDER(cert.Raw), nil
}

// OpenUni opens an outgoing unidirectional stream. Remote opens a real QUIC
// send stream; Local enqueues the matching Incoming on the connection's own
// uni queue, so whatever is registered to receive it runs on this same
// Connection.
func (c *Connection) OpenUni(ctx context.Context) (stream.Send, error) {
	if !c.active() {
		return nil, ErrConnectionClosed
	}
	if c.quicConn != nil {
		ss, err := c.quicConn.OpenUniStreamSync(ctx)
		if err != nil {
			return nil, err
		}
		return stream.NewRemoteSend(ss, ss.Close), nil
	}

	q := queue.New[any]()
	send := stream.NewLocalSend(q)
	recv := stream.NewLocalRecv(c.localCtx, q)
	c.local.uni.Push(stream.NewIncomingUni(recv))
	return send, nil
}

// OpenBi opens an outgoing bidirectional stream, returning this side's send
// and recv halves. Local wires two queues crosswise so the initiator's
// writes become the responder's reads and vice versa.
func (c *Connection) OpenBi(ctx context.Context) (stream.Send, stream.Recv, error) {
	if !c.active() {
		return nil, nil, ErrConnectionClosed
	}
	if c.quicConn != nil {
		st, err := c.quicConn.OpenStreamSync(ctx)
		if err != nil {
			return nil, nil, err
		}
		send := stream.NewRemoteSend(st, st.Close)
		recv := stream.NewRemoteRecv(st, func(code uint64) { st.CancelRead(quic.StreamErrorCode(code)) })
		return send, recv, nil
	}

	forward := queue.New[any]()
	backward := queue.New[any]()
	initSend := stream.NewLocalSend(forward)
	initRecv := stream.NewLocalRecv(c.localCtx, backward)
	respSend := stream.NewLocalSend(backward)
	respRecv := stream.NewLocalRecv(c.localCtx, forward)
	c.local.bi.Push(stream.NewIncomingBi(stream.BiEnds{Send: respSend, Recv: respRecv}))
	return initSend, initRecv, nil
}

// OpenDatagram opens an outgoing datagram "stream": a single Send whose
// accumulated writes are transmitted atomically on Finish. Remote transmits
// a byte payload over the QUIC connection; Local pushes a typed vector
// straight onto the connection's own datagram queue.
func (c *Connection) OpenDatagram(ctx context.Context) (stream.Send, error) {
	if !c.active() {
		return nil, ErrConnectionClosed
	}
	if c.quicConn != nil {
		return stream.NewRemoteDatagramSend(c.sendDatagram), nil
	}
	return stream.NewLocalDatagramSend(func(vals []any) {
		c.local.datagram.Push(stream.NewIncomingDatagram(stream.NewLocalDatagramRecv(vals)))
	}), nil
}

// sendDatagram transmits an already-framed byte payload over the Remote
// transport. It fails ErrKindVariantMismatch on a Local connection, which
// has no byte-oriented transport to speak to.
func (c *Connection) sendDatagram(payload []byte) error {
	if c.quicConn == nil {
		return ErrKindVariantMismatch
	}
	return c.quicConn.SendDatagram(payload)
}

// Spawn schedules fn under this Connection's task group: it is cancelled
// when the connection closes or its pumps terminate, and an error it
// returns (other than from cancellation) is logged.
func (c *Connection) Spawn(target string, fn func(ctx context.Context) error) {
	c.tasks.Spawn(target, fn)
}

// Close transitions the connection to Closed and aborts every task spawned
// on it. It also cancels localCtx, unblocking any in-flight Local read
// parked in stream.LocalRecv/LocalDatagramRecv; the Remote equivalent needs
// no such nudge, since CloseWithError below unblocks a pending quic-go read
// on its own. For Remote connections Close also closes the underlying QUIC
// connection with the given application error code and reason. Close on a
// Local connection is otherwise a no-op beyond that: a loopback connection
// has no transport-level close to perform past stopping its own pumps and
// waking its own blocked reads.
func (c *Connection) Close(code uint64, reason string) error {
	c.state.Store(int32(stateClosed))
	c.tasks.Close()
	c.localCancel()
	if c.quicConn != nil {
		return c.quicConn.CloseWithError(quic.ApplicationErrorCode(code), reason)
	}
	return nil
}
