// Copyright 2026 The Socketed Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tasks provides a scoped set of goroutines that all get cancelled
// together when their owner is torn down.
//
// Semantics and design:
//   - Every long-running activity (connection pumps, registry dispatch
//     trampolines, application callbacks) is submitted through Group.Spawn,
//     which wraps the function in an error-logging shell and records a
//     context.CancelFunc for it.
//   - Group.Close cancels every recorded function. Goroutines cannot be
//     force-killed in Go, so "cancel" here means: the context passed to fn is
//     cancelled, and fn is expected to return promptly. This is the Go
//     rendering of an abort-on-drop task list.
//   - A Group is safe for concurrent use; Spawn may be called from multiple
//     goroutines and may itself be called from within a spawned fn.
package tasks

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Group is a scoped set of goroutines that share a lifetime. The zero value
// is not usable; construct with NewGroup.
type Group struct {
	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
	closed  bool

	parent context.Context
	log    *zerolog.Logger
}

// NewGroup returns a Group whose spawned functions are derived from parent
// and logged through log.
func NewGroup(parent context.Context, log *zerolog.Logger) *Group {
	return &Group{parent: parent, log: log}
}

// Spawn runs fn in a new goroutine, deriving its context from the Group's
// parent context. If fn returns a non-nil error while its own context is
// still live, the error is logged at Error level against target; an error
// returned after that context was cancelled is not logged. Spawn on a closed
// Group runs fn with an already-cancelled context, so its failures are not
// logged; it neither panics nor rejects the call.
func (g *Group) Spawn(target string, fn func(ctx context.Context) error) {
	g.mu.Lock()
	ctx, cancel := context.WithCancel(g.parent)
	g.cancels = append(g.cancels, cancel)
	g.wg.Add(1)
	closed := g.closed
	g.mu.Unlock()

	if closed {
		cancel()
	}

	go func() {
		defer g.wg.Done()
		defer cancel()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			g.log.Error().Str("target", target).Err(err).Msg("task failed")
		}
	}()
}

// Close cancels every function spawned on this Group. It does not wait for
// them to return; call Wait for that. Close is idempotent.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	cancels := g.cancels
	g.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Context returns the Group's parent context, the one every Spawn call
// derives its per-task context from. Close does not cancel it: it is done
// only when whoever owns the parent cancels it.
func (g *Group) Context() context.Context { return g.parent }

// Wait blocks until every spawned function has returned. Callers typically
// call Close followed by Wait when they need deterministic teardown (e.g.
// tests asserting the "dropping a Connection aborts every task" invariant).
func (g *Group) Wait() {
	g.wg.Wait()
}
