// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"code.socketed.dev/socketed/internal/queue"
	"code.socketed.dev/socketed/stream"
	"code.socketed.dev/socketed/wire"
)

func TestLocalOngoingRoundTrip(t *testing.T) {
	t.Parallel()

	q := queue.New[any]()
	send := stream.NewLocalSend(q)
	recv := stream.NewLocalRecv(context.Background(), q)

	require.NoError(t, send.WriteValue("echo"))
	require.NoError(t, send.WriteValue(int64(42)))

	id, err := recv.ReadString()
	require.NoError(t, err)
	require.Equal(t, "echo", id)

	var n int64
	require.NoError(t, recv.ReadValue(&n))
	require.Equal(t, int64(42), n)
}

func TestLocalRecv_TypeMismatch(t *testing.T) {
	t.Parallel()

	q := queue.New[any]()
	send := stream.NewLocalSend(q)
	recv := stream.NewLocalRecv(context.Background(), q)

	require.NoError(t, send.WriteValue(int64(7)))

	var s string
	err := recv.ReadValue(&s)
	require.ErrorIs(t, err, wire.ErrInvalidTypeEncountered)
}

func TestLocalDatagramAtomicDelivery(t *testing.T) {
	t.Parallel()

	var delivered []any
	send := stream.NewLocalDatagramSend(func(vals []any) { delivered = vals })

	require.NoError(t, send.WriteValue("d"))
	require.NoError(t, send.WriteValue(uint64(0xDEADBEEF)))
	require.NoError(t, send.Finish())

	require.Len(t, delivered, 2)

	recv := stream.NewLocalDatagramRecv(delivered)
	id, err := recv.ReadString()
	require.NoError(t, err)
	require.Equal(t, "d", id)

	var v uint64
	require.NoError(t, recv.ReadValue(&v))
	require.Equal(t, uint64(0xDEADBEEF), v)
}

func TestIncomingKindExtraction(t *testing.T) {
	t.Parallel()

	q := queue.New[any]()
	recv := stream.NewLocalRecv(context.Background(), q)
	in := stream.NewIncomingUni(recv)

	require.Equal(t, stream.KindUni, in.Kind())

	_, err := in.Bi()
	require.ErrorIs(t, err, stream.ErrUnimplementedKind)

	got, err := in.Uni()
	require.NoError(t, err)
	require.Equal(t, recv, got)
}
