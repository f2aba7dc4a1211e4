// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"code.socketed.dev/socketed/handler"
	"code.socketed.dev/socketed/internal/queue"
	"code.socketed.dev/socketed/registry"
	"code.socketed.dev/socketed/stream"
)

// fakeConn runs Spawn synchronously so tests can assert on its effects
// without needing to wait on goroutines.
type fakeConn struct{}

func (fakeConn) OpenUni(ctx context.Context) (stream.Send, error) { return nil, io.ErrClosedPipe }
func (fakeConn) OpenBi(ctx context.Context) (stream.Send, stream.Recv, error) {
	return nil, nil, io.ErrClosedPipe
}
func (fakeConn) OpenDatagram(ctx context.Context) (stream.Send, error) { return nil, io.ErrClosedPipe }
func (fakeConn) Spawn(target string, fn func(context.Context) error)  { _ = fn(context.Background()) }

// echoSend is the send half of a unidirectional "echo" handler.
type echoSend struct{}

func (echoSend) Opener() stream.Opener[stream.Send] { return stream.Uni{} }
func (echoSend) Build(ctx handler.SendContext[stream.Send]) (handler.Initiator, error) {
	return nil, nil
}

// echoRecv is the receive half; it forwards whatever payload it reads to a
// channel so tests can observe it.
type echoRecv struct{ received chan string }

func (e echoRecv) Extractor() stream.Extractor[stream.Recv] { return stream.Uni{} }
func (e echoRecv) Build(ctx handler.ReceiveContext[stream.Recv]) (handler.Receiver, error) {
	return echoReceiver{recv: ctx.Stream, received: e.received}, nil
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

// echoIdentifier bundles both halves under the id "echo".
type echoIdentifier struct {
	send echoSend
	recv echoRecv
}

func (echoIdentifier) ID() string                                  { return "echo" }
func (e echoIdentifier) Send() handler.SendBuilder[stream.Send]     { return e.send }
func (e echoIdentifier) Recv() handler.ReceiveBuilder[stream.Recv]  { return e.recv }

func newRegistryWithEcho(t *testing.T) (*registry.Registry, chan string) {
	t.Helper()
	received := make(chan string, 1)
	reg := registry.New()
	id := echoIdentifier{recv: echoRecv{received: received}}
	require.NoError(t, registry.Register[stream.Send, stream.Recv](reg, id))
	return reg, received
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &l
}

func TestCreateReceiver_KnownIdentifier(t *testing.T) {
	t.Parallel()

	reg, received := newRegistryWithEcho(t)

	q := queue.New[any]()
	send := stream.NewLocalSend(q)
	recv := stream.NewLocalRecv(context.Background(), q)

	require.NoError(t, send.WriteValue("echo"))
	require.NoError(t, send.WriteValue("hi"))

	registry.CreateReceiver(reg, fakeConn{}, testLogger(), stream.NewIncomingUni(recv))

	require.Equal(t, "hi", <-received)
}

func TestCreateReceiver_UnknownIdentifier(t *testing.T) {
	t.Parallel()

	reg := registry.New()

	q := queue.New[any]()
	send := stream.NewLocalSend(q)
	recv := stream.NewLocalRecv(context.Background(), q)
	require.NoError(t, send.WriteValue("ghost"))

	// Must not panic or block; the stream is simply dropped.
	registry.CreateReceiver(reg, fakeConn{}, testLogger(), stream.NewIncomingUni(recv))
}

func TestGet_TypeMismatch(t *testing.T) {
	t.Parallel()

	reg, _ := newRegistryWithEcho(t)

	_, err := registry.Get[stream.BiEnds, stream.BiEnds](reg, "echo")
	require.ErrorIs(t, err, registry.ErrRegistrationTypeMismatch)
}

func TestRegister_DuplicateAndSealed(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	id := echoIdentifier{recv: echoRecv{received: make(chan string, 1)}}
	require.NoError(t, registry.Register[stream.Send, stream.Recv](reg, id))

	err := registry.Register[stream.Send, stream.Recv](reg, id)
	require.ErrorIs(t, err, registry.ErrDuplicateIdentifier)

	reg2 := registry.New()
	reg2.Seal()
	err = registry.Register[stream.Send, stream.Recv](reg2, id)
	require.ErrorIs(t, err, registry.ErrSealed)
}
