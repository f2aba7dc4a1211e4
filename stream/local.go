// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"context"

	"code.socketed.dev/socketed/internal/queue"
	"code.socketed.dev/socketed/wire"
)

// LocalSend pushes typed, boxed values straight into an unbounded queue,
// bypassing serialization entirely. Its dual, LocalRecv, downcasts them back.
type LocalSend struct {
	q *queue.Unbounded[any]
}

// NewLocalSend wraps q for writing. Both ends of a Local ongoing stream
// share the same queue.
func NewLocalSend(q *queue.Unbounded[any]) *LocalSend { return &LocalSend{q: q} }

func (s *LocalSend) WriteExact(p []byte) error {
	s.q.Push(append([]byte(nil), p...))
	return nil
}

func (s *LocalSend) WriteSize(n uint32) error {
	s.q.Push(n)
	return nil
}

func (s *LocalSend) WriteBytes(p []byte) error {
	s.q.Push(append([]byte(nil), p...))
	return nil
}

func (s *LocalSend) WriteValue(v any) error {
	s.q.Push(v)
	return nil
}

// Finish is a no-op: the shared queue is left open, so the matching LocalRecv
// never observes end-of-stream from it. A read blocked on the empty queue is
// released only when the LocalRecv's context (the owning Connection's
// lifetime) is done.
func (s *LocalSend) Finish() error { return nil }

// LocalRecv pops boxed values pushed by the matching LocalSend and downcasts
// them to the type the caller asked for, failing ErrInvalidTypeEncountered
// on a mismatch.
type LocalRecv struct {
	q   *queue.Unbounded[any]
	ctx context.Context
}

// NewLocalRecv wraps q for reading. ctx is the owning connection's lifetime
// context: closing it unblocks a pending read.
func NewLocalRecv(ctx context.Context, q *queue.Unbounded[any]) *LocalRecv {
	return &LocalRecv{q: q, ctx: ctx}
}

func (r *LocalRecv) pop() (any, error) { return r.q.Pop(r.ctx) }

func (r *LocalRecv) ReadExact(n uint32) ([]byte, error) {
	v, err := r.pop()
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok || uint32(len(b)) != n {
		return nil, wire.ErrInvalidTypeEncountered
	}
	return b, nil
}

func (r *LocalRecv) ReadSize() (uint32, error) {
	v, err := r.pop()
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint32)
	if !ok {
		return 0, wire.ErrInvalidTypeEncountered
	}
	return n, nil
}

func (r *LocalRecv) ReadBytes() ([]byte, error) {
	v, err := r.pop()
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, wire.ErrInvalidTypeEncountered
	}
	return b, nil
}

func (r *LocalRecv) ReadValue(v any) error {
	boxed, err := r.pop()
	if err != nil {
		return err
	}
	if sp, ok := v.(*string); ok {
		s, ok := boxed.(string)
		if !ok {
			return wire.ErrInvalidTypeEncountered
		}
		*sp = s
		return nil
	}
	return wire.AssignInto(boxed, v)
}

func (r *LocalRecv) ReadString() (string, error) {
	boxed, err := r.pop()
	if err != nil {
		return "", err
	}
	s, ok := boxed.(string)
	if !ok {
		return "", wire.ErrInvalidTypeEncountered
	}
	return s, nil
}

// Stop is a no-op: a loopback connection cannot reset itself from the far
// side, matching Connection.Close's Local no-op.
func (r *LocalRecv) Stop(code uint64) error { return nil }
