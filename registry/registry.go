// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"code.socketed.dev/socketed/handler"
	"code.socketed.dev/socketed/stream"
)

type registration struct {
	obj      any
	dispatch func(ctx context.Context, conn handler.Connection, in stream.Incoming) error
}

// Registry is the read-mostly map from identifier string to registration.
// The zero value is not usable; construct with New.
type Registry struct {
	mu     sync.Mutex
	regs   map[string]registration
	sealed bool
}

// New returns an empty, unsealed Registry.
func New() *Registry {
	return &Registry{regs: make(map[string]registration)}
}

// Register adds id's registration under id.ID(). It fails with ErrSealed
// once the registry has been sealed, or ErrDuplicateIdentifier if the name
// is already taken. Insertion order does not matter; lookup is by exact
// string equality.
func Register[TSend, TRecv any](r *Registry, id handler.Identifier[TSend, TRecv]) error {
	name := id.ID()
	extractor := id.Recv().Extractor()
	builder := id.Recv()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, name)
	}
	if _, exists := r.regs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, name)
	}
	r.regs[name] = registration{
		obj: id,
		dispatch: func(ctx context.Context, conn handler.Connection, in stream.Incoming) error {
			typed, err := extractor.Extract(in)
			if err != nil {
				return fmt.Errorf("%s: %w", name, stream.ErrUnimplementedKind)
			}
			recv, err := builder.Build(handler.ReceiveContext[TRecv]{Conn: conn, Stream: typed})
			if err != nil {
				return err
			}
			return recv.Receive(ctx)
		},
	}
	return nil
}

// Seal marks the registry read-only. Call it once, before the endpoint
// begins accepting connections; Register calls after Seal fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) lookup(id string) (registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	return reg, ok
}

// Get returns the identifier registered under id, downcast to the requested
// send/recv types. It fails with ErrNoSuchRegistration if id is unknown, or
// ErrRegistrationTypeMismatch if id is registered under different types.
func Get[TSend, TRecv any](r *Registry, id string) (handler.Identifier[TSend, TRecv], error) {
	reg, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchRegistration, id)
	}
	typed, ok := reg.obj.(handler.Identifier[TSend, TRecv])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistrationTypeMismatch, id)
	}
	return typed, nil
}

// CreateReceiver spawns the dispatch trampoline on conn: it reads the first
// framed value off in as the handler id, looks up the matching
// registration, and runs its receive builder. An unknown id is logged at
// error and the stream is dropped without invoking any handler.
func CreateReceiver(r *Registry, conn handler.Connection, log *zerolog.Logger, in stream.Incoming) {
	conn.Spawn("registry.dispatch", func(ctx context.Context) error {
		id, err := stream.ReadIdentifier(in)
		if err != nil {
			return fmt.Errorf("read handler identifier: %w", err)
		}

		reg, ok := r.lookup(id)
		if !ok {
			log.Error().Str("id", id).Str("kind", in.Kind().String()).Msg("registry: no such registration")
			return nil
		}
		return reg.dispatch(ctx, conn, in)
	})
}

// OpenContext opens id's send-side stream via its registered Opener, writes
// id as the first frame, and builds the resulting Initiator. The caller
// schedules Initiator.Run, normally via conn.Spawn.
func OpenContext[TSend, TRecv any](ctx context.Context, r *Registry, conn handler.Connection, id string) (handler.Initiator, error) {
	ident, err := Get[TSend, TRecv](r, id)
	if err != nil {
		return nil, err
	}

	send := ident.Send()
	opened, err := send.Opener().Open(ctx, conn)
	if err != nil {
		return nil, err
	}
	if err := stream.WriteIdentifier(opened, id); err != nil {
		return nil, err
	}
	return send.Build(handler.SendContext[TSend]{Conn: conn, Stream: opened})
}
