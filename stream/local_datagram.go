// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"io"

	"code.socketed.dev/socketed/wire"
)

// LocalDatagramSend accumulates boxed values into a slice and delivers the
// whole slice atomically on Finish, matching the Remote datagram's
// all-or-nothing delivery without any serialization.
type LocalDatagramSend struct {
	push func([]any)
	buf  []any
}

// NewLocalDatagramSend returns a datagram-building Send whose Finish hands
// the accumulated vector to push (normally a connection's own datagram
// queue, since Local connections loop back to themselves).
func NewLocalDatagramSend(push func([]any)) *LocalDatagramSend {
	return &LocalDatagramSend{push: push}
}

func (d *LocalDatagramSend) WriteExact(p []byte) error {
	d.buf = append(d.buf, append([]byte(nil), p...))
	return nil
}

func (d *LocalDatagramSend) WriteSize(n uint32) error {
	d.buf = append(d.buf, n)
	return nil
}

func (d *LocalDatagramSend) WriteBytes(p []byte) error {
	d.buf = append(d.buf, append([]byte(nil), p...))
	return nil
}

func (d *LocalDatagramSend) WriteValue(v any) error {
	d.buf = append(d.buf, v)
	return nil
}

func (d *LocalDatagramSend) Finish() error {
	d.push(d.buf)
	return nil
}

// LocalDatagramRecv reads boxed values off an already-fully-delivered
// vector. Reads never block, matching the Remote datagram recv's
// cursor-over-a-fixed-array behavior.
type LocalDatagramRecv struct {
	vals []any
	i    int
}

// NewLocalDatagramRecv wraps a delivered vector for framed reads.
func NewLocalDatagramRecv(vals []any) *LocalDatagramRecv {
	return &LocalDatagramRecv{vals: vals}
}

func (r *LocalDatagramRecv) next() (any, error) {
	if r.i >= len(r.vals) {
		return nil, io.EOF
	}
	v := r.vals[r.i]
	r.i++
	return v, nil
}

func (r *LocalDatagramRecv) ReadExact(n uint32) ([]byte, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok || uint32(len(b)) != n {
		return nil, wire.ErrInvalidTypeEncountered
	}
	return b, nil
}

func (r *LocalDatagramRecv) ReadSize() (uint32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint32)
	if !ok {
		return 0, wire.ErrInvalidTypeEncountered
	}
	return n, nil
}

func (r *LocalDatagramRecv) ReadBytes() ([]byte, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, wire.ErrInvalidTypeEncountered
	}
	return b, nil
}

func (r *LocalDatagramRecv) ReadValue(v any) error {
	boxed, err := r.next()
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

func (r *LocalDatagramRecv) ReadString() (string, error) {
	boxed, err := r.next()
	if err != nil {
		return "", err
	}
	s, ok := boxed.(string)
	if !ok {
		return "", wire.ErrInvalidTypeEncountered
	}
	return s, nil
}

func (r *LocalDatagramRecv) Stop(code uint64) error { return nil }
