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
	"os"
	"runtime"
	"weak"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"code.socketed.dev/socketed/internal/queue"
	"code.socketed.dev/socketed/registry"
	"code.socketed.dev/socketed/tasks"
)

// Endpoint owns a bound UDP socket and the QUIC transport built on top of
// it. A server-role Endpoint accepts inbound Connections; either role can
// dial out via Connect, which transparently returns a Local connection
// instead of a real QUIC dial when the target address is the Endpoint's own.
//
// An Endpoint holds no strong references to the Connections it creates; it
// hands each one out once, as a weak.Pointer, over its event stream (or as
// Connect's return value). This mirrors the ownership model of the runtime
// this package is modeled on, where an endpoint's connection table holds
// weak handles and a connection outlives its entry only as long as the
// application keeps its own strong reference.
type Endpoint struct {
	role       Role
	cert       tls.Certificate
	tlsConfig  *tls.Config
	quicConfig *quic.Config

	registry *registry.Registry
	log      *zerolog.Logger
	tasks    *tasks.Group

	baseCtx    context.Context
	cancelBase context.CancelFunc

	transport *quic.Transport
	listener  *quic.Listener
	localAddr net.Addr

	events *queue.Unbounded[Event]
}

// Build constructs and, for a server-role Config, starts accepting
// connections on an Endpoint. reg is sealed as part of Build: no further
// handler may be registered once an Endpoint exists over it, since a
// connection could start dispatching to it immediately.
func Build(cfg Config, reg *registry.Registry) (*Endpoint, error) {
	reg.Seal()

	log := cfg.logger
	if log == nil {
		l := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		log = &l
	}

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.addr)
	if err != nil {
		return nil, fmt.Errorf("resolve bind address: %w", err)
	}
	pc, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind udp socket: %w", err)
	}
	transport := &quic.Transport{Conn: pc}

	baseCtx, cancel := context.WithCancel(context.Background())
	ep := &Endpoint{
		role:       cfg.role,
		cert:       cfg.cert,
		tlsConfig:  cfg.tlsConfig,
		quicConfig: cfg.quicConfig,
		registry:   reg,
		log:        log,
		baseCtx:    baseCtx,
		cancelBase: cancel,
		transport:  transport,
		localAddr:  pc.LocalAddr(),
		events:     queue.New[Event](),
	}
	ep.tasks = tasks.NewGroup(baseCtx, log)
	ep.armDropLogging()

	if cfg.role == RoleServer {
		ln, err := transport.Listen(cfg.tlsConfig, cfg.quicConfig)
		if err != nil {
			cancel()
			_ = pc.Close()
			return nil, fmt.Errorf("listen: %w", err)
		}
		ep.listener = ln
		ep.startAcceptLoop()
	}
	return ep, nil
}

func (ep *Endpoint) startAcceptLoop() {
	ep.tasks.Spawn("endpoint.accept", func(ctx context.Context) error {
		for {
			qc, err := ep.listener.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				ep.log.Error().Err(err).Msg("endpoint: accept failed")
				continue
			}
			conn := newRemoteConnection(ep, qc)
			ep.registerConnection(conn)
		}
	})
}

func (ep *Endpoint) registerConnection(c *Connection) {
	ep.events.Push(Event{Kind: EventCreated, Conn: weak.Make(c)})
}

// Connect opens a Connection to address. name is used as the TLS server
// name for a Remote dial; it is ignored when address resolves to this
// Endpoint's own bound address, in which case Connect returns a Local
// connection instead of dialing out.
func (ep *Endpoint) Connect(ctx context.Context, address, name string) (weak.Pointer[Connection], error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return weak.Pointer[Connection]{}, fmt.Errorf("resolve peer address: %w", err)
	}

	if sameUDPAddr(raddr, ep.localAddr) {
		conn := newLocalConnection(ep)
		ep.registerConnection(conn)
		return weak.Make(conn), nil
	}

	tlsConf := ep.tlsConfig.Clone()
	tlsConf.ServerName = name
	qc, err := ep.transport.Dial(ctx, raddr, tlsConf, ep.quicConfig)
	if err != nil {
		return weak.Pointer[Connection]{}, fmt.Errorf("dial: %w", err)
	}
	conn := newRemoteConnection(ep, qc)
	ep.registerConnection(conn)
	return weak.Make(conn), nil
}

func sameUDPAddr(a *net.UDPAddr, b net.Addr) bool {
	ub, ok := b.(*net.UDPAddr)
	if !ok {
		return false
	}
	if a.Port != ub.Port {
		return false
	}
	if a.IP.IsUnspecified() || ub.IP.IsUnspecified() {
		return true
	}
	return a.IP.Equal(ub.IP)
}

// ConnectionReceiver returns the read end of this Endpoint's
// Created/Dropped event stream.
func (ep *Endpoint) ConnectionReceiver() *EventReceiver {
	return &EventReceiver{q: ep.events}
}

// LocalAddr returns the Endpoint's bound UDP address.
func (ep *Endpoint) LocalAddr() net.Addr { return ep.localAddr }

// Fingerprint returns the base64url SHA-256 digest of this Endpoint's own
// certificate: its parsed Leaf when set, otherwise the last certificate in
// its chain.
func (ep *Endpoint) Fingerprint() (string, error) {
	if len(ep.cert.Certificate) == 0 {
		return "", ErrCertificateIdentityIsEmpty
	}
	leaf := ep.cert.Leaf
	if leaf == nil {
		var err error
		leaf, err = x509.ParseCertificate(ep.cert.Certificate[len(ep.cert.Certificate)-1])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrIdentityIsNotCertificate, err)
		}
	}
	return fingerprintDER(leaf.Raw), nil
}

// Spawn schedules fn under the Endpoint's own task group, independent of any
// particular Connection (its accept loop runs this way).
func (ep *Endpoint) Spawn(target string, fn func(ctx context.Context) error) {
	ep.tasks.Spawn(target, fn)
}

// Close stops accepting new connections, cancels every task spawned on the
// Endpoint or on any Connection derived from it (pump contexts are all
// descendants of the Endpoint's base context), and releases the underlying
// UDP socket. Connections already handed out become unusable as their pumps
// observe the cancelled context and their weak references stop resolving
// once the application drops its own references to them.
func (ep *Endpoint) Close() error {
	ep.tasks.Close()
	ep.cancelBase()
	ep.events.Close()
	if ep.listener != nil {
		_ = ep.listener.Close()
	}
	if ep.transport != nil {
		return ep.transport.Close()
	}
	return nil
}

func (ep *Endpoint) armDropLogging() {
	addr := fmt.Sprint(ep.localAddr)
	log := ep.log
	runtime.AddCleanup(ep, func(info cleanupInfo) {
		info.log.Debug().Str("local", info.remote).Msg("endpoint collected")
	}, cleanupInfo{remote: addr, log: log})
}
