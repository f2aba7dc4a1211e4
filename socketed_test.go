// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package socketed_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"code.socketed.dev/socketed"
	"code.socketed.dev/socketed/handler"
	"code.socketed.dev/socketed/registry"
	"code.socketed.dev/socketed/stream"
)

// selfSignedCert mirrors the throwaway certificate every quic-go example
// generates for its own tests: an ECDSA key, one self-signed leaf, no CA.
func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "socketed-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func testLog() *zerolog.Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &l
}

// echoIdentifier is a minimal unidirectional handler: it reads one string
// off the stream it receives and writes it back on a channel the test owns,
// so the test can assert on what arrived without coupling to a particular
// transport.
type echoIdentifier struct{ received chan string }

func (echoIdentifier) ID() string { return "echo" }
func (echoIdentifier) Send() handler.SendBuilder[stream.Send] {
	return echoSendBuilder{}
}
func (e echoIdentifier) Recv() handler.ReceiveBuilder[stream.Recv] {
	return echoRecvBuilder{received: e.received}
}

type echoSendBuilder struct{}

func (echoSendBuilder) Opener() stream.Opener[stream.Send] { return stream.Uni{} }
func (echoSendBuilder) Build(ctx handler.SendContext[stream.Send]) (handler.Initiator, error) {
	return echoInitiator{send: ctx.Stream}, nil
}

type echoInitiator struct{ send stream.Send }

func (e echoInitiator) Run(ctx context.Context) error {
	if err := e.send.WriteValue("hello"); err != nil {
		return err
	}
	return e.send.Finish()
}

type echoRecvBuilder struct{ received chan string }

func (b echoRecvBuilder) Extractor() stream.Extractor[stream.Recv] { return stream.Uni{} }
func (b echoRecvBuilder) Build(ctx handler.ReceiveContext[stream.Recv]) (handler.Receiver, error) {
	return echoReceiver{recv: ctx.Stream, received: b.received}, nil
}

type echoReceiver struct {
	recv     stream.Recv
	received chan string
}

func (r echoReceiver) Receive(ctx context.Context) error {
	payload, err := r.recv.ReadString()
	if err != nil {
		return err
	}
	r.received <- payload
	return nil
}

func newEchoRegistry(t *testing.T) (*registry.Registry, chan string) {
	t.Helper()
	received := make(chan string, 1)
	reg := registry.New()
	require.NoError(t, registry.Register[stream.Send, stream.Recv](reg, echoIdentifier{received: received}))
	return reg, received
}

func TestRemoteEchoConnectionLifecycle(t *testing.T) {
	t.Parallel()

	reg, received := newEchoRegistry(t)
	cert := selfSignedCert(t)
	log := testLog()

	serverCfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(log))
	server, err := socketed.Build(serverCfg, reg)
	require.NoError(t, err)
	defer server.Close()

	clientReg := registry.New()
	require.NoError(t, registry.Register[stream.Send, stream.Recv](clientReg, echoIdentifier{received: make(chan string, 1)}))
	clientCfg := socketed.NewClientConfig(":0", cert, &tls.Config{InsecureSkipVerify: true}, socketed.WithLogger(log))
	client, err := socketed.Build(clientCfg, clientReg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverEvents := server.ConnectionReceiver()

	clientConnWeak, err := client.Connect(ctx, server.LocalAddr().String(), "socketed-test")
	require.NoError(t, err)
	clientConn, err := socketed.Resolve(clientConnWeak)
	require.NoError(t, err)

	ev, err := serverEvents.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, socketed.EventCreated, ev.Kind)
	serverConn, err := socketed.Resolve(ev.Conn)
	require.NoError(t, err)

	init, err := registry.OpenContext[stream.Send, stream.Recv](ctx, clientReg, clientConn, "echo")
	require.NoError(t, err)
	require.NoError(t, init.Run(ctx))

	select {
	case got := <-received:
		require.Equal(t, "hello", got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for echoed payload")
	}

	require.NoError(t, serverConn.Close(0, "done"))

	ev, err = serverEvents.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, socketed.EventDropped, ev.Kind)
}

func TestLocalLoopbackEcho(t *testing.T) {
	t.Parallel()

	reg, received := newEchoRegistry(t)
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connWeak, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
	require.NoError(t, err)
	conn := connWeak.Value()
	require.NotNil(t, conn)
	require.True(t, conn.IsLocal())

	init, err := registry.OpenContext[stream.Send, stream.Recv](ctx, reg, conn, "echo")
	require.NoError(t, err)
	require.NoError(t, init.Run(ctx))

	select {
	case got := <-received:
		require.Equal(t, "hello", got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for looped-back payload")
	}
}

func TestUnknownIdentifierLeavesConnectionUsable(t *testing.T) {
	t.Parallel()

	reg, received := newEchoRegistry(t)
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connWeak, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
	require.NoError(t, err)
	conn := connWeak.Value()
	require.NotNil(t, conn)

	ghostSend, err := conn.OpenUni(ctx)
	require.NoError(t, err)
	require.NoError(t, ghostSend.WriteValue("ghost"))
	require.NoError(t, ghostSend.Finish())

	init, err := registry.OpenContext[stream.Send, stream.Recv](ctx, reg, conn, "echo")
	require.NoError(t, err)
	require.NoError(t, init.Run(ctx))

	select {
	case got := <-received:
		require.Equal(t, "hello", got)
	case <-ctx.Done():
		t.Fatal("connection stopped dispatching after an unknown identifier")
	}
}

func TestDatagramRoundTrip(t *testing.T) {
	t.Parallel()

	received := make(chan uint64, 1)
	reg := registry.New()
	require.NoError(t, registry.Register[stream.Send, stream.Recv](reg, datagramIdentifier{received: received}))
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connWeak, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
	require.NoError(t, err)
	conn := connWeak.Value()
	require.NotNil(t, conn)

	init, err := registry.OpenContext[stream.Send, stream.Recv](ctx, reg, conn, "d")
	require.NoError(t, err)
	require.NoError(t, init.Run(ctx))

	select {
	case got := <-received:
		require.Equal(t, uint64(0xDEADBEEF), got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for datagram")
	}
}

type datagramIdentifier struct{ received chan uint64 }

func (datagramIdentifier) ID() string { return "d" }
func (datagramIdentifier) Send() handler.SendBuilder[stream.Send] {
	return datagramSendBuilder{}
}
func (d datagramIdentifier) Recv() handler.ReceiveBuilder[stream.Recv] {
	return datagramRecvBuilder{received: d.received}
}

type datagramSendBuilder struct{}

func (datagramSendBuilder) Opener() stream.Opener[stream.Send] { return stream.Datagram{} }
func (datagramSendBuilder) Build(ctx handler.SendContext[stream.Send]) (handler.Initiator, error) {
	return datagramInitiator{send: ctx.Stream}, nil
}

type datagramInitiator struct{ send stream.Send }

func (d datagramInitiator) Run(ctx context.Context) error {
	if err := d.send.WriteValue(uint64(0xDEADBEEF)); err != nil {
		return err
	}
	return d.send.Finish()
}

type datagramRecvBuilder struct{ received chan uint64 }

func (b datagramRecvBuilder) Extractor() stream.Extractor[stream.Recv] { return stream.Datagram{} }
func (b datagramRecvBuilder) Build(ctx handler.ReceiveContext[stream.Recv]) (handler.Receiver, error) {
	return datagramReceiver{recv: ctx.Stream, received: b.received}, nil
}

type datagramReceiver struct {
	recv     stream.Recv
	received chan uint64
}

func (r datagramReceiver) Receive(ctx context.Context) error {
	var v uint64
	if err := r.recv.ReadValue(&v); err != nil {
		return err
	}
	r.received <- v
	return nil
}

// bidiIdentifier is a bidirectional handler: the initiator writes an int on
// its send half and reads the echoed value back on its recv half; the
// responder mirrors whatever int it reads straight back. Both roles key off
// the same BiEnds pair, since a single bidirectional stream carries both
// directions.
type bidiIdentifier struct {
	id       string
	received chan int
}

func (b bidiIdentifier) ID() string { return b.id }
func (b bidiIdentifier) Send() handler.SendBuilder[stream.BiEnds] {
	return bidiSendBuilder{received: b.received}
}
func (b bidiIdentifier) Recv() handler.ReceiveBuilder[stream.BiEnds] {
	return bidiRecvBuilder{}
}

type bidiSendBuilder struct{ received chan int }

func (bidiSendBuilder) Opener() stream.Opener[stream.BiEnds] { return stream.Bi{} }
func (b bidiSendBuilder) Build(ctx handler.SendContext[stream.BiEnds]) (handler.Initiator, error) {
	return bidiInitiator{ends: ctx.Stream, received: b.received}, nil
}

// bidiInitiator writes 42, reads the echo back, and reports what came back
// on received. abort, when set, makes it finish its send half and stop its
// recv half instead of waiting for the echo, simulating an initiator that
// walks away from its own stream without affecting a sibling stream opened
// under the same identifier.
type bidiInitiator struct {
	ends     stream.BiEnds
	received chan int
	abort    bool
}

func (b bidiInitiator) Run(ctx context.Context) error {
	if err := b.ends.Send.WriteValue(42); err != nil {
		return err
	}
	if err := b.ends.Send.Finish(); err != nil {
		return err
	}
	if b.abort {
		return b.ends.Recv.Stop(0)
	}
	var echoed int
	if err := b.ends.Recv.ReadValue(&echoed); err != nil {
		return err
	}
	b.received <- echoed
	return nil
}

type bidiRecvBuilder struct{}

func (bidiRecvBuilder) Extractor() stream.Extractor[stream.BiEnds] { return stream.Bi{} }
func (bidiRecvBuilder) Build(ctx handler.ReceiveContext[stream.BiEnds]) (handler.Receiver, error) {
	return bidiReceiver{ends: ctx.Stream}, nil
}

type bidiReceiver struct{ ends stream.BiEnds }

func (r bidiReceiver) Receive(ctx context.Context) error {
	var v int
	if err := r.ends.Recv.ReadValue(&v); err != nil {
		return err
	}
	if err := r.ends.Send.WriteValue(v); err != nil {
		return err
	}
	return r.ends.Send.Finish()
}

func TestBidirectionalIntRoundTrip(t *testing.T) {
	t.Parallel()

	received := make(chan int, 1)
	reg := registry.New()
	require.NoError(t, registry.Register[stream.BiEnds, stream.BiEnds](reg, bidiIdentifier{id: "bidi", received: received}))
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connWeak, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
	require.NoError(t, err)
	conn, err := socketed.Resolve(connWeak)
	require.NoError(t, err)

	init, err := registry.OpenContext[stream.BiEnds, stream.BiEnds](ctx, reg, conn, "bidi")
	require.NoError(t, err)
	require.NoError(t, init.Run(ctx))

	select {
	case got := <-received:
		require.Equal(t, 42, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for bidirectional echo")
	}
}

func TestConcurrentDuplicateBidirectionalStreams(t *testing.T) {
	t.Parallel()

	keptReceived := make(chan int, 1)
	abortedReceived := make(chan int, 1)
	reg := registry.New()
	require.NoError(t, registry.Register[stream.BiEnds, stream.BiEnds](reg, bidiIdentifier{id: "dup", received: keptReceived}))
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connWeak, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
	require.NoError(t, err)
	conn, err := socketed.Resolve(connWeak)
	require.NoError(t, err)

	ident, err := registry.Get[stream.BiEnds, stream.BiEnds](reg, "dup")
	require.NoError(t, err)

	openDup := func(abort bool, received chan int) (handler.Initiator, error) {
		opened, err := ident.Send().Opener().Open(ctx, conn)
		if err != nil {
			return nil, err
		}
		if err := stream.WriteIdentifier(opened, "dup"); err != nil {
			return nil, err
		}
		return bidiInitiator{ends: opened, received: received, abort: abort}, nil
	}

	aborted, err := openDup(true, abortedReceived)
	require.NoError(t, err)
	kept, err := openDup(false, keptReceived)
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() { errs <- aborted.Run(ctx) }()
	go func() { errs <- kept.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			require.NoError(t, err)
		case <-ctx.Done():
			t.Fatal("timed out running concurrent dup streams")
		}
	}

	select {
	case got := <-keptReceived:
		require.Equal(t, 42, got)
	case <-ctx.Done():
		t.Fatal("aborting one dup stream affected the other's delivery")
	}

	select {
	case <-abortedReceived:
		t.Fatal("aborted stream's initiator unexpectedly reported a received value")
	default:
	}
}

func TestEndpointCloseAbortsConnections(t *testing.T) {
	t.Parallel()

	reg, _ := newEchoRegistry(t)
	cert := selfSignedCert(t)

	cfg := socketed.NewServerConfig("127.0.0.1:0", cert, &tls.Config{}, socketed.WithLogger(testLog()))
	ep, err := socketed.Build(cfg, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var conns []*socketed.Connection
	for i := 0; i < 8; i++ {
		w, err := ep.Connect(ctx, ep.LocalAddr().String(), "self")
		require.NoError(t, err)
		c := w.Value()
		require.NotNil(t, c)
		conns = append(conns, c)
	}

	require.NoError(t, ep.Close())

	// The endpoint's base context is the ancestor of every connection's task
	// group; closing it cancels every pump, which then marks its connection
	// Closed. Give the pump goroutines a moment to observe the cancellation.
	time.Sleep(100 * time.Millisecond)

	for _, c := range conns {
		_, err := c.OpenUni(ctx)
		require.Error(t, err)
	}
}
